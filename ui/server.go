package ui

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"gotier/domain/core"
	"gotier/domain/verdict"
	"gotier/internal/report"
	"gotier/ports"
)

// Server is the read-only catalog web UI. It consumes the reader port only,
// so nothing reachable from a browser can write classifications or touch
// graph state.
type Server struct {
	router    *gin.Engine
	reader    ports.ReaderPort
	renderer  *report.Renderer
	templates *template.Template
}

// NewServer creates the catalog web server
func NewServer(reader ports.ReaderPort, ginMode string) (*Server, error) {
	gin.SetMode(ginMode)

	funcMap := template.FuncMap{
		"mul": func(a, b float64) float64 { return a * b },
	}
	templates, err := template.New("ui").Funcs(funcMap).Parse(pageTemplates)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    gin.Default(),
		reader:    reader,
		renderer:  report.NewRenderer(),
		templates: templates,
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleCatalog)
	s.router.GET("/entries/:id", s.handleEntry)
	s.router.GET("/entries/:id/report", s.handleEntryReport)

	s.router.GET("/api/catalog", s.handleCatalogJSON)
	s.router.GET("/api/stats", s.handleStats)
}

// Start begins serving on the given address
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleCatalog(c *gin.Context) {
	filters := catalogFilters(c)
	rows, err := s.reader.ListCatalog(c.Request.Context(), filters)
	if err != nil {
		c.String(http.StatusInternalServerError, "catalog unavailable: %v", err)
		return
	}

	stats, err := s.reader.GetCatalogStats(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, "catalog unavailable: %v", err)
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	err = s.templates.ExecuteTemplate(c.Writer, "catalog", gin.H{
		"Rows":         rows,
		"Stats":        stats,
		"Distribution": report.TailProbDistribution(rows),
	})
	if err != nil {
		c.String(http.StatusInternalServerError, "render failed: %v", err)
	}
}

func (s *Server) handleEntry(c *gin.Context) {
	detail, ok := s.loadDetail(c)
	if !ok {
		return
	}

	reportHTML := s.renderer.HTML(detail, &detail.Simulation)
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	err := s.templates.ExecuteTemplate(c.Writer, "entry", gin.H{
		"Detail": detail,
		"Report": template.HTML(reportHTML),
	})
	if err != nil {
		c.String(http.StatusInternalServerError, "render failed: %v", err)
	}
}

// handleEntryReport serves the raw markdown report for download
func (s *Server) handleEntryReport(c *gin.Context) {
	detail, ok := s.loadDetail(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/markdown; charset=utf-8")
	c.String(http.StatusOK, s.renderer.Markdown(detail, &detail.Simulation))
}

func (s *Server) handleCatalogJSON(c *gin.Context) {
	rows, err := s.reader.ListCatalog(c.Request.Context(), catalogFilters(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": rows, "count": len(rows)})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.reader.GetCatalogStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rows, err := s.reader.ListCatalog(c.Request.Context(), ports.ClassificationFilters{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totals":       stats,
		"distribution": report.TailProbDistribution(rows),
	})
}

func (s *Server) loadDetail(c *gin.Context) (*ports.CatalogDetail, bool) {
	entryID := core.EntryID(c.Param("id"))
	detail, err := s.reader.GetCatalogEntry(c.Request.Context(), entryID)
	if err != nil {
		if core.IsNotFoundError(err) {
			c.String(http.StatusNotFound, "entry not found")
		} else {
			c.String(http.StatusInternalServerError, "entry unavailable: %v", err)
		}
		return nil, false
	}
	return detail, true
}

func catalogFilters(c *gin.Context) ports.ClassificationFilters {
	filters := ports.ClassificationFilters{}
	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}
	if tier := c.Query("tier"); tier != "" {
		t := verdict.Tier(tier)
		filters.Tier = &t
	}
	if label := c.Query("label"); label != "" {
		l := verdict.Label(label)
		filters.Label = &l
	}
	return filters
}
