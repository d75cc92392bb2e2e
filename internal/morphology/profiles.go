package morphology

import (
	"fmt"
	"sort"
	"strings"
)

const DefaultProfile = "default"

var profiles = map[string]Morphology{
	DefaultProfile: New(),
	"near-sighted": {
		SensorDist:          1.0,
		SensorAngle:         0.3,
		BeliefLearningRate:  0.1,
		TargetConcentration: 0.8,
	},
	"wide-scanner": {
		SensorDist:          3.5,
		SensorAngle:         0.9,
		BeliefLearningRate:  0.2,
		TargetConcentration: 0.8,
	},
	"frugal": {
		SensorDist:          2.0,
		SensorAngle:         0.5,
		BeliefLearningRate:  0.15,
		TargetConcentration: 0.6,
	},
}

// Profile resolves a named starting morphology. Names are case-insensitive.
func Profile(name string) (Morphology, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultProfile
	}
	m, ok := profiles[key]
	if !ok {
		return Morphology{}, fmt.Errorf("unknown morphology profile %q (available: %s)", name, strings.Join(ProfileNames(), ", "))
	}
	return m, nil
}

func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
