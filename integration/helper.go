package integration

import (
	"context"
	"database/sql"
	"net"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/inventory-service/internal/config"
	httpAPI "github.com/iyhunko/inventory-service/internal/http"
	"github.com/iyhunko/inventory-service/internal/http/controller"
	reposql "github.com/iyhunko/inventory-service/internal/repository/sql"
	"github.com/iyhunko/inventory-service/internal/service"
	"github.com/iyhunko/inventory-service/internal/validation"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
)

const (
	postgresImage   = "postgres"
	postgresTag     = "16"
	containerExpiry = 120 // seconds
)

// TestDB is a throwaway PostgreSQL container with the inventory schema applied.
type TestDB struct {
	DB       *sql.DB
	pool     *dockertest.Pool
	resource *dockertest.Resource
}

// SetupTestDB starts PostgreSQL in Docker and connects to it the same way the
// product service does: pgx driver, then migrations from ../migrations.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "could not connect to docker")
	pool.MaxWait = 2 * time.Minute

	dbConf := config.DB{
		Driver:         "pgx",
		User:           "inventario",
		Password:       "secret",
		Name:           "inventario",
		MigrationsPath: "file://../migrations",
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: postgresImage,
		Tag:        postgresTag,
		Env: []string{
			"POSTGRES_USER=" + dbConf.User,
			"POSTGRES_PASSWORD=" + dbConf.Password,
			"POSTGRES_DB=" + dbConf.Name,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "could not start postgres")
	require.NoError(t, resource.Expire(containerExpiry))

	dbConf.Host, dbConf.Port, err = net.SplitHostPort(resource.GetHostPort("5432/tcp"))
	require.NoError(t, err)

	testDB := &TestDB{pool: pool, resource: resource}
	err = pool.Retry(func() error {
		db, err := reposql.StartDB(context.Background(), dbConf)
		if err != nil {
			return err
		}
		testDB.DB = db
		return nil
	})
	if err != nil {
		testDB.Cleanup(t)
		t.Fatalf("postgres never became ready: %v", err)
	}
	return testDB
}

// Cleanup closes the connection pool and removes the container.
func (tdb *TestDB) Cleanup(t *testing.T) {
	t.Helper()
	if tdb.DB != nil {
		if err := tdb.DB.Close(); err != nil {
			t.Errorf("could not close database: %v", err)
		}
	}
	if err := tdb.pool.Purge(tdb.resource); err != nil {
		t.Errorf("could not purge postgres container: %v", err)
	}
}

// TruncateTables empties the outbox and the product table and restarts product ids at 1.
func (tdb *TestDB) TruncateTables(t *testing.T) {
	t.Helper()
	_, err := tdb.DB.ExecContext(context.Background(), "TRUNCATE TABLE events, produto RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

// NewRouter wires the whole HTTP stack over the PostgreSQL repositories.
func (tdb *TestDB) NewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	productService := service.NewProductService(
		reposql.NewProductRepository(tdb.DB),
		reposql.NewTransactionalRepository(tdb.DB),
		validation.New(),
	)
	return httpAPI.InitRouter(gin.New(), controller.New(), controller.NewProductController(productService))
}

// CountEvents returns how many outbox rows of eventType exist.
func (tdb *TestDB) CountEvents(t *testing.T, eventType string) int {
	t.Helper()
	var count int
	err := tdb.DB.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM events WHERE event_type = $1", eventType).Scan(&count)
	require.NoError(t, err)
	return count
}
