package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/logger"
)

func TestRootCmd_BootstrapsBeforeCommands(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer logger.SetVerbose(false)

	var got GlobalOptions
	bootstrap = func(_ context.Context, opts GlobalOptions) (*Services, error) {
		got = opts
		return &Services{Search: ts.search, Settings: ts.settings}, nil
	}
	searchService = nil

	_, err := runCmd(nil, "--verbose", "--data-dir", "/tmp/recall", "--config", "/tmp/c.toml", "setup")

	require.NoError(t, err)
	assert.True(t, got.Verbose)
	assert.Equal(t, "/tmp/recall", got.DataDir)
	assert.Equal(t, "/tmp/c.toml", got.ConfigPath)
	assert.Equal(t, "console", got.LogFormat)
	assert.Same(t, ts.search, searchService)
}

func TestRootCmd_BootstrapError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	bootstrap = func(context.Context, GlobalOptions) (*Services, error) {
		return nil, errors.New("cannot open database")
	}

	_, err := runCmd(nil, "setup")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting recall: cannot open database")
}

func TestRootCmd_VersionSkipsBootstrap(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	called := false
	bootstrap = func(context.Context, GlobalOptions) (*Services, error) {
		called = true
		return &Services{}, nil
	}

	_, err := runCmd(nil, "version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestRootCmd_InvalidLogFormat(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCmd(nil, "--log-format", "xml", "version")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExecute_ClosesServices(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	closed := false
	boot := func(context.Context, GlobalOptions) (*Services, error) {
		return &Services{
			Search: ts.search,
			Close: func() error {
				closed = true
				return nil
			},
		}, nil
	}
	rootCmd.SetArgs([]string{"setup"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background(), "1.2.3", boot)

	require.NoError(t, err)
	assert.True(t, closed)
	assert.Nil(t, closeServices)
	assert.Equal(t, "1.2.3", version)
	version = "dev"
}

func TestParseKind(t *testing.T) {
	kind, err := parseKind("conversation")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceKindConversation, kind)

	_, err = parseKind("")
	assert.Error(t, err)

	_, err = parseKind("email")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
