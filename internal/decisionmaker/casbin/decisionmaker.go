package casbin

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/go-sql-driver/mysql"

	"github.com/CameronXie/order-service/internal/decisionmaker"
)

var (
	//go:embed model.conf
	DefaultModel string

	//go:embed policy.csv
	DefaultPolicy string
)

// MySQLConfig locates the casbin_rule table managed by gorm-adapter.
type MySQLConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
}

// DSN renders the config as a go-sql-driver/mysql data source name.
func (c MySQLConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database
	cfg.ParseTime = true

	return cfg.FormatDSN()
}

// NewDefaultAdapter serves the embedded policy.
func NewDefaultAdapter() persist.Adapter {
	return stringadapter.NewAdapter(DefaultPolicy)
}

// NewFileAdapter reads policy rows from a CSV file.
func NewFileAdapter(path string) persist.Adapter {
	return fileadapter.NewAdapter(path)
}

// NewMySQLAdapter stores policy rows in MySQL. Without a database name
// gorm-adapter creates and uses its own "casbin" database.
func NewMySQLAdapter(cfg MySQLConfig) (persist.Adapter, error) {
	var (
		adapter *gormadapter.Adapter
		err     error
	)

	if cfg.Database == "" {
		adapter, err = gormadapter.NewAdapter("mysql", cfg.DSN())
	} else {
		adapter, err = gormadapter.NewAdapter("mysql", cfg.DSN(), true)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql policy adapter: %w", err)
	}

	return adapter, nil
}

type DecisionMaker struct {
	enforcer casbin.IEnforcer
	stop     func()
}

// MakeDecision evaluates subject, resource and action against the loaded policy.
func (d *DecisionMaker) MakeDecision(_ context.Context, req *decisionmaker.DecisionRequest) (bool, error) {
	return d.enforcer.Enforce(req.Subject, req.Resource, req.Action)
}

// Close stops the policy auto reload, if any.
func (d *DecisionMaker) Close() {
	if d.stop != nil {
		d.stop()
	}
}

// NewDecisionMaker builds a synchronised enforcer over modelText and the policy
// from adapter. A positive reloadInterval reloads the policy in the background.
func NewDecisionMaker(modelText string, adapter persist.Adapter, reloadInterval time.Duration) (*DecisionMaker, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	d := &DecisionMaker{enforcer: enforcer}
	if reloadInterval > 0 {
		enforcer.StartAutoLoadPolicy(reloadInterval)
		d.stop = enforcer.StopAutoLoadPolicy
	}

	return d, nil
}
