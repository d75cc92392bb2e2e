package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"protozoa/internal/model"
	"protozoa/internal/platform"
)

// routes registers:
//
//	GET  /healthz
//	GET  /snapshot            latest snapshot of the live run (?run= overrides)
//	GET  /active              IDs of runs in flight
//	GET  /runs                stored runs
//	GET  /runs/:id            run record and summary
//	GET  /runs/:id/samples
//	GET  /runs/:id/regulations
//	POST /runs/:id/stop
//	GET  /children            supervisor status, when supervised
//	GET  /metrics             Prometheus exposition
func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", s.handleHealth)
	r.GET("/snapshot", s.handleSnapshot)
	r.GET("/active", s.handleActive)
	r.GET("/runs", s.handleListRuns)
	r.GET("/runs/:id", s.handleGetRun)
	r.GET("/runs/:id/samples", s.handleSamples)
	r.GET("/runs/:id/regulations", s.handleRegulations)
	r.POST("/runs/:id/stop", s.handleStop)
	r.GET("/children", s.handleChildren)
	if m := s.polis.Metrics(); m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
}

type runResponse struct {
	Run     model.RunRecord   `json:"run"`
	Summary *model.RunSummary `json:"summary,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "active_runs": len(s.polis.ActiveRuns())})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	runID := c.Query("run")
	if runID == "" {
		runID = s.liveRun()
	}
	if runID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live run"})
		return
	}
	snap, ok := s.polis.LiveSnapshot(runID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not active", "run_id": runID})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleActive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"runs": s.polis.ActiveRuns()})
}

func (s *Server) handleListRuns(c *gin.Context) {
	runs, err := s.polis.Store().ListRuns(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	run, ok, err := s.polis.Store().GetRun(ctx, id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found", "run_id": id})
		return
	}
	resp := runResponse{Run: run}
	summary, ok, err := s.polis.Store().GetSummary(ctx, id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if ok {
		resp.Summary = &summary
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSamples(c *gin.Context) {
	id := c.Param("id")
	samples, ok, err := s.polis.Store().GetSamples(c.Request.Context(), id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "samples not found", "run_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": id, "samples": samples})
}

func (s *Server) handleRegulations(c *gin.Context) {
	id := c.Param("id")
	events, ok, err := s.polis.Store().GetRegulations(c.Request.Context(), id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "regulations not found", "run_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": id, "regulations": events})
}

func (s *Server) handleStop(c *gin.Context) {
	id := c.Param("id")
	if err := s.polis.StopRun(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run_id": id, "status": "stopping"})
}

func (s *Server) handleChildren(c *gin.Context) {
	if s.supervisor == nil {
		c.JSON(http.StatusOK, gin.H{"children": []platform.ChildStatus{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"children": s.supervisor.Children()})
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
