package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		panic(err)
	}
	return c
})

// LoadEnv loads the given env files from the working directory, falling
// back to the go.mod root so tests run from nested packages still pick
// up the repository .env files. Returns the number of files loaded.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		root, ok := findGoModRoot()
		if !ok {
			return 0, nil
		}
		for _, file := range envFiles {
			candidate := filepath.Join(root, file)
			if fileExists(candidate) {
				existingFiles = append(existingFiles, candidate)
			}
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func findGoModRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"organization"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// OrganizationOptions configures the recognized enumerations and the
// tenancy behavior of the organization module.
type OrganizationOptions struct {
	Types        []string `env:"ORGANIZATION_TYPES" envSeparator:"," envDefault:"company,branch,department,division,sub_division"`
	Statuses     []string `env:"ORGANIZATION_STATUSES" envSeparator:"," envDefault:"active,inactive"`
	ManagerRoles []string `env:"ORGANIZATION_MANAGER_ROLES" envSeparator:"," envDefault:"manager,supervisor,coordinator,assistant"`

	TenancyEnabled bool   `env:"ORGANIZATION_TENANCY_ENABLED" envDefault:"false"`
	TenantColumn   string `env:"ORGANIZATION_TENANT_COLUMN" envDefault:"tenant_id"`

	PerPage    int `env:"ORGANIZATION_PER_PAGE" envDefault:"15"`
	MaxPerPage int `env:"ORGANIZATION_MAX_PER_PAGE" envDefault:"100"`

	// TreeDepth bounds how many descendant levels GetTree loads eagerly.
	TreeDepth int `env:"ORGANIZATION_TREE_DEPTH" envDefault:"4"`
}

// PermissionOptions maps organization actions to the permission strings
// consulted for coarse grants.
type PermissionOptions struct {
	Create         string `env:"ORGANIZATION_PERMISSION_CREATE" envDefault:"organization.create"`
	View           string `env:"ORGANIZATION_PERMISSION_VIEW" envDefault:"organization.view"`
	Update         string `env:"ORGANIZATION_PERMISSION_UPDATE" envDefault:"organization.update"`
	Delete         string `env:"ORGANIZATION_PERMISSION_DELETE" envDefault:"organization.delete"`
	AssignManagers string `env:"ORGANIZATION_PERMISSION_ASSIGN_MANAGERS" envDefault:"organization.assign_managers"`
}

type AuthzOptions struct {
	ModelPath  string `env:"AUTHZ_MODEL_PATH" envDefault:"config/access/model.conf"`
	PolicyPath string `env:"AUTHZ_POLICY_PATH" envDefault:"config/access/policy.csv"`
}

type Configuration struct {
	Database     DatabaseOptions
	Organization OrganizationOptions
	Permissions  PermissionOptions
	Authz        AuthzOptions

	Environment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	logger     *logrus.Logger
	loggerOnce sync.Once
}

// Use returns the process wide configuration singleton.
func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	if _, err := LoadEnv(envFiles); err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	c.Database.Opts = c.Database.ConnectionString()
	return nil
}

func (c *Configuration) Logger() *logrus.Logger {
	c.loggerOnce.Do(func() {
		logger := logrus.New()
		level, err := logrus.ParseLevel(c.LogLevel)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
		if c.Environment == Production {
			logger.SetFormatter(&logrus.JSONFormatter{})
		}
		c.logger = logger
	})
	return c.logger
}
