package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/casbin/casbin/v2/persist"

	"github.com/CameronXie/order-service/internal/config"
	"github.com/CameronXie/order-service/internal/decisionmaker/casbin"
	"github.com/CameronXie/order-service/internal/decisionmaker/opa"
	"github.com/CameronXie/order-service/internal/enforcer"
	"github.com/CameronXie/order-service/internal/infoprovider"
	"github.com/CameronXie/order-service/internal/policyretriever"
)

// backgroundTask runs until ctx is cancelled.
type backgroundTask func(ctx context.Context) error

// newEnforcer builds the operation policy selected by AUTHZ_ENGINE. The
// returned task, if any, keeps the policy fresh.
func newEnforcer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (enforcer.Enforcer, backgroundTask, func(), error) {
	switch cfg.AuthzEngine {
	case config.EngineCasbin:
		logger.Info("initializing enforcer with Casbin")
		return newCasbinEnforcer(cfg)
	case config.EngineOPA:
		logger.Info("initializing enforcer with OPA")
		return newOPAEnforcer(ctx, cfg, logger)
	default:
		logger.Info("operation policy disabled, every confirmed principal is allowed")
		return enforcer.AllowAll(), nil, func() {}, nil
	}
}

func newCasbinEnforcer(cfg *config.Config) (enforcer.Enforcer, backgroundTask, func(), error) {
	modelText := casbin.DefaultModel
	if cfg.AuthzCasbinModelFile != "" {
		data, err := os.ReadFile(cfg.AuthzCasbinModelFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to read casbin model: %w", err)
		}
		modelText = string(data)
	}

	adapter, err := newCasbinAdapter(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	decisionMaker, err := casbin.NewDecisionMaker(modelText, adapter, cfg.AuthzPolicyReloadInterval)
	if err != nil {
		return nil, nil, nil, err
	}

	return enforcer.NewEnforcer(decisionMaker), nil, decisionMaker.Close, nil
}

// newCasbinAdapter prefers MySQL, then a policy file, then the embedded policy.
func newCasbinAdapter(cfg *config.Config) (persist.Adapter, error) {
	switch {
	case cfg.AuthzCasbinMySQLHost != "":
		return casbin.NewMySQLAdapter(casbin.MySQLConfig{
			User:     cfg.AuthzCasbinMySQLUser,
			Password: cfg.AuthzCasbinMySQLPassword,
			Host:     cfg.AuthzCasbinMySQLHost,
			Port:     cfg.AuthzCasbinMySQLPort,
			Database: cfg.AuthzCasbinMySQLDatabase,
		})
	case cfg.AuthzCasbinPolicyFile != "":
		return casbin.NewFileAdapter(cfg.AuthzCasbinPolicyFile), nil
	default:
		return casbin.NewDefaultAdapter(), nil
	}
}

func newOPAEnforcer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (enforcer.Enforcer, backgroundTask, func(), error) {
	roles, err := infoprovider.ParseRoles(cfg.AuthzRoles)
	if err != nil {
		return nil, nil, nil, err
	}

	retriever := policyretriever.Default()
	if cfg.AuthzOPAPolicyFile != "" {
		retriever = policyretriever.NewFilePolicyRetriever(cfg.AuthzOPAPolicyFile)
	}

	decisionMaker, err := opa.NewDecisionMaker(ctx, retriever, infoprovider.NewStaticInfoProvider(roles), policyretriever.DefaultQuery)
	if err != nil {
		return nil, nil, nil, err
	}

	var reload backgroundTask
	if cfg.AuthzPolicyReloadInterval > 0 {
		reload = func(ctx context.Context) error {
			reloadPolicy(ctx, decisionMaker, cfg.AuthzPolicyReloadInterval, logger)
			return nil
		}
	}

	return enforcer.NewEnforcer(decisionMaker), reload, func() {}, nil
}

// reloadPolicy recompiles the policy on every tick. A failed reload keeps the
// previous policy.
func reloadPolicy(ctx context.Context, decisionMaker *opa.DecisionMaker, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := decisionMaker.Reload(ctx); err != nil {
				logger.ErrorContext(ctx, "failed to reload policy", "error", err)
			}
		}
	}
}
