package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/app"
	"github.com/hospital-shifts/scheduler/internal/middleware"
	"github.com/hospital-shifts/scheduler/internal/models"
)

var (
	anyRole     = models.AllRoles
	adminOrCoor = []models.RoleType{models.RoleAdmin, models.RoleCoordinator}
	adminOnly   = []models.RoleType{models.RoleAdmin}
)

type server struct {
	app   *app.App
	log   *zap.Logger
	board *boardRenderer
}

// newRouter builds the gin engine with every route and its role guard.
func newRouter(a *app.App, ws http.Handler) *gin.Engine {
	s := &server{app: a, log: a.Log, board: newBoardRenderer()}

	r := gin.New()
	r.Use(
		middleware.AssignRequestID(),
		middleware.RequestLogger(a.Log.Named("http")),
		middleware.Recovery(a.Log),
		middleware.CORS(a.Config.Server.CORSAllowedOrigins),
	)
	r.NoRoute(func(c *gin.Context) {
		middleware.RespondError(c, apperr.NotFound("no route for %s %s", c.Request.Method, c.Request.URL.Path))
	})

	authn := middleware.Authenticate(a.Tokens)
	roles := middleware.RequireRoles

	r.GET("/ws", gin.WrapH(ws))
	r.GET("/board", s.handleBoard)

	api := r.Group("/api")
	{
		api.POST("/auth/register", s.handleRegister)
		api.POST("/auth/login", s.handleLogin)

		api.GET("/health", s.handleHealth)
		api.GET("/health/check", s.handleHealthCheck)
		api.GET("/agent/coze-health", s.handleCozeHealth)
	}

	secured := api.Group("", authn)
	{
		departments := secured.Group("/departments")
		departments.GET("", s.handleListDepartments)
		departments.GET("/:id", s.handleGetDepartment)
		departments.POST("", roles(adminOrCoor...), s.handleCreateDepartment)
		departments.PUT("/:id", roles(adminOrCoor...), s.handleUpdateDepartment)
		departments.DELETE("/:id", roles(adminOnly...), s.handleDeleteDepartment)

		shifts := secured.Group("/shifts")
		shifts.GET("", s.handleListShifts)
		shifts.GET("/open", s.handleListOpenShifts)
		shifts.GET("/summary", s.handleShiftSummary)
		shifts.GET("/department/:id", s.handleListDepartmentShifts)
		shifts.GET("/:id", s.handleGetShift)
		shifts.POST("", roles(adminOrCoor...), s.handleCreateShift)
		shifts.PUT("/:id", roles(adminOrCoor...), s.handleAssignShift)
		shifts.DELETE("/:id", roles(adminOnly...), s.handleDeleteShift)

		admin := secured.Group("/admin", roles(adminOnly...))
		admin.PUT("/shifts/:id", s.handleAdminUpdateShift)
		admin.GET("/users", s.handleListUsers)
		admin.GET("/users/:id", s.handleGetUser)
		admin.PUT("/users/:id/password", s.handleChangePassword)

		secured.GET("/calendar", s.handleListCalendar)
		secured.POST("/calendar", roles(adminOrCoor...), s.handleCreateCalendarEntry)

		agentTasks := secured.Group("/agent/tasks")
		agentTasks.POST("", roles(adminOrCoor...), s.handleCreateAgentTask)
		agentTasks.GET("/pending", roles(models.RoleAdmin, models.RoleAgent), s.handleListPendingTasks)
		agentTasks.GET("/:id", roles(models.RoleAdmin, models.RoleCoordinator, models.RoleAgent), s.handleGetAgentTask)
		agentTasks.PUT("/:id", roles(models.RoleAdmin, models.RoleAgent), s.handleUpdateAgentTask)

		secured.GET("/agent/chat", roles(anyRole...), s.handleRecentChat)
		secured.POST("/agent/coze-chat", roles(anyRole...), s.handleCozeChat)

		secured.POST("/logs/error", s.handleClientError)
	}

	return r
}

// bindJSON decodes the request body into v and reports failures as
// validation errors.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		middleware.RespondError(c, middleware.BindError(err))
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondError(c, apperr.Invalid("invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}
