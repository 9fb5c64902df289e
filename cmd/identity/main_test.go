package main

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecretCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"secret"})
	require.NoError(t, cmd.Execute())

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	require.Len(t, raw, 64)
}

func TestSecretCommandRejectsShortSize(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"secret", "--size", "16"})
	require.Error(t, cmd.Execute())
}

func TestMigrateRejectsInvalidConfig(t *testing.T) {
	t.Setenv("IDENTITY_DB_DRIVER", "mysql")
	cmd := rootCmd()
	cmd.SetArgs([]string{"migrate"})
	require.Error(t, cmd.Execute())
}
