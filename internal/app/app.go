// Package app wires configuration, storage and services into one value
// shared by the API server and the standalone agent worker.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hospital-shifts/scheduler/internal/agent"
	"github.com/hospital-shifts/scheduler/internal/auth"
	"github.com/hospital-shifts/scheduler/internal/config"
	"github.com/hospital-shifts/scheduler/internal/db"
	"github.com/hospital-shifts/scheduler/internal/realtime"
	"github.com/hospital-shifts/scheduler/internal/scheduling"
	"github.com/hospital-shifts/scheduler/internal/store"
)

type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Store    *store.SQLStore
	Bus      *realtime.Bus
	Tokens   *auth.TokenManager
	Workflow *agent.WorkflowClient

	Departments *scheduling.DepartmentService
	Shifts      *scheduling.ShiftService
	Accounts    *scheduling.AccountService
	Calendar    *scheduling.CalendarService
	Tasks       *scheduling.AgentTaskService
	Chat        *scheduling.ChatService
}

// Open connects to the configured database, applies the schema and builds
// the services on top of it.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	q, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := q.Migrate(ctx); err != nil {
		q.Close()
		return nil, err
	}
	log.Info("database ready", zap.String("driver", q.Driver()))
	return New(store.NewSQLStore(q), cfg, log), nil
}

// New builds the services over an existing store.
func New(st *store.SQLStore, cfg *config.Config, log *zap.Logger) *App {
	bus := realtime.NewBus()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	workflow := agent.NewWorkflowClient(agent.WorkflowOptions{
		URL:        cfg.Coze.APIURL,
		APIKey:     cfg.Coze.APIKey,
		WorkflowID: cfg.Coze.WorkflowID,
		Timeout:    cfg.Coze.Timeout,
		Retry: agent.RetryConfig{
			InitialInterval: agent.DefaultRetryConfig().InitialInterval,
			MaxInterval:     agent.DefaultRetryConfig().MaxInterval,
			MaxRetries:      cfg.Coze.MaxRetries,
		},
	}, log.Named("workflow"))

	return &App{
		Config:   cfg,
		Log:      log,
		Store:    st,
		Bus:      bus,
		Tokens:   tokens,
		Workflow: workflow,

		Departments: scheduling.NewDepartmentService(st, log.Named("departments")),
		Shifts:      scheduling.NewShiftService(st, st, st, bus, log.Named("shifts")),
		Accounts:    scheduling.NewAccountService(st, st, tokens, cfg.Auth.BcryptCost, log.Named("accounts")),
		Calendar:    scheduling.NewCalendarService(st, st),
		Tasks:       scheduling.NewAgentTaskService(st, bus, log.Named("agent_tasks")),
		Chat:        scheduling.NewChatService(st, workflow, bus, log.Named("chat")),
	}
}

// Bootstrap seeds roles and the configured admin account.
func (a *App) Bootstrap(ctx context.Context) (bool, error) {
	created, err := a.Accounts.Bootstrap(ctx, a.Config.Auth.AdminEmail, a.Config.Auth.AdminPassword)
	if err != nil {
		return false, fmt.Errorf("bootstrap accounts: %w", err)
	}
	return created, nil
}

// Dispatcher returns an agent worker pool over the task queue.
func (a *App) Dispatcher() *agent.Dispatcher {
	return agent.NewDispatcher(a.Tasks, a.Workflow, a.Config.Agent.Workers, a.Config.Agent.PollInterval, a.Log.Named("agent"))
}

// NewHub returns the WebSocket relay for the bus.
func (a *App) NewHub() *realtime.Hub {
	return realtime.NewHub(a.Bus, a.Chat, a.Config.Server.WSAllowedOrigins, a.Log.Named("ws"))
}

func (a *App) Close() error {
	a.Bus.Close()
	return a.Store.Close()
}
