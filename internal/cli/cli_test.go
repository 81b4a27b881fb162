package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barangay-registry/internal/app/container"
	"barangay-registry/internal/error/code"
	"barangay-registry/internal/infrastructure/config"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type cliEnv struct {
	mr  *miniredis.Miniredis
	cfg *config.Config
}

func newCLIEnv(t *testing.T) *cliEnv {
	mr := miniredis.RunT(t)
	return &cliEnv{mr: mr, cfg: &config.Config{
		StoreBackend:         config.BackendRedis,
		RedisHost:            mr.Host(),
		RedisPort:            mr.Port(),
		Barangay:             "Kabacsanan",
		PasswordScheme:       config.SchemePBKDF2,
		DefaultAdminPassword: "s3cret!",
		DefaultAdminEmail:    "admin@example.ph",
	}}
}

// run executes one command line and decodes the printed envelope
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (envelope, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(commandDeps{
		out:  &out,
		in:   strings.NewReader(stdin),
		cfg:  e.cfg,
		open: container.NewServiceContainer,
	})
	cmd.SetArgs(args)
	err := cmd.Execute()

	var env envelope
	require.NoError(t, json.Unmarshal(out.Bytes(), &env), out.String())
	if len(env.Data) > 0 {
		var compact bytes.Buffer
		require.NoError(t, json.Compact(&compact, env.Data))
		env.Data = compact.Bytes()
	}
	return env, err
}

func TestHouseholdCommands(t *testing.T) {
	e := newCLIEnv(t)

	env, err := e.run(t, `{"addressLine1":"5 Mabini St","categoryTags":["Senior"]}`, "household", "create")
	require.NoError(t, err)
	assert.Equal(t, code.ErrSuccess, env.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created["id"]
	require.NotEmpty(t, id)

	env, err = e.run(t, "", "household", "get", id)
	require.NoError(t, err)
	assert.Contains(t, string(env.Data), `"addressLine1":"5 Mabini St"`)

	env, err = e.run(t, "", "household", "list", "--tag", "senior")
	require.NoError(t, err)
	assert.Contains(t, string(env.Data), id)

	env, err = e.run(t, `{"notes":"corner lot"}`, "household", "update", id)
	require.NoError(t, err)
	assert.Contains(t, string(env.Data), "corner lot")

	_, err = e.run(t, "", "household", "delete", id)
	require.NoError(t, err)

	env, err = e.run(t, "", "household", "get", id)
	require.ErrorIs(t, err, ErrReported)
	assert.Equal(t, code.ErrHouseholdNotFound, env.Code)
}

func TestResidentCommandsAndSearch(t *testing.T) {
	e := newCLIEnv(t)

	env, err := e.run(t, `{"firstName":"Jose","lastName":"Rizal","birthDate":"1990-06-19","gender":"Male","civilStatus":"Single"}`, "resident", "create")
	require.NoError(t, err)
	var created map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &created))

	env, err = e.run(t, "", "search", "rizal")
	require.NoError(t, err)
	assert.Contains(t, string(env.Data), created["id"])

	env, err = e.run(t, "", "search", "rizal", "--only", "households")
	require.NoError(t, err)
	assert.NotContains(t, string(env.Data), created["id"])

	env, err = e.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, string(env.Data), `"total":1`)

	env, err = e.run(t, "", "reindex-ages")
	require.NoError(t, err)
	assert.JSONEq(t, `{"moved":0}`, string(env.Data))

	// a resident without a name fails validation
	env, err = e.run(t, `{"birthDate":"1990-06-19"}`, "resident", "create")
	require.ErrorIs(t, err, ErrReported)
	assert.NotEqual(t, code.ErrSuccess, env.Code)
}

func TestAdminInitAndLogin(t *testing.T) {
	e := newCLIEnv(t)

	env, err := e.run(t, "", "admin", "init")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"admin","created":true}`, string(env.Data))

	env, err = e.run(t, "", "admin", "init")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"admin","created":false}`, string(env.Data))

	env, err = e.run(t, "", "user", "login", "admin", "--password", "s3cret!")
	require.NoError(t, err)
	var principal map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &principal))
	assert.Equal(t, "admin", principal["role"])
	assert.ElementsMatch(t, []string{"id", "username", "fullName", "role"}, mapKeys(principal))

	env, err = e.run(t, "", "user", "login", "admin", "--password", "wrong")
	require.NoError(t, err)
	assert.JSONEq(t, `{"authenticated":false}`, string(env.Data))

	env, err = e.run(t, "", "user", "get", "--email", "admin@example.ph")
	require.NoError(t, err)
	assert.NotContains(t, string(env.Data), "password")
}

func TestRunEveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	runs := 0
	require.NoError(t, runEvery(ctx, 10*time.Millisecond, func(context.Context) { runs++ }))
	assert.GreaterOrEqual(t, runs, 2)
}

func mapKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
