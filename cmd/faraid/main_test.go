package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "faraid/internal/platform/jwt"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCalculateCommand(t *testing.T) {
	out, err := execute(t, "calculate", "-m", "shafii", "--total", "120000",
		"--heir", "husband=1,father=1,mother=1", "--steps")
	require.NoError(t, err)

	assert.Contains(t, out, "Husband")
	assert.Contains(t, out, "60000")
	assert.Contains(t, out, "confidence: 1.00")
	assert.Contains(t, out, " 1. [")
}

func TestCalculateCommand_JSON(t *testing.T) {
	out, err := execute(t, "calculate", "--json", "-m", "maliki", "--total", "50000",
		"--heir", "grandfather=1,full_brother=1,full_sister=1")
	require.NoError(t, err)

	var body struct {
		ID     string `json:"id"`
		Result struct {
			Shares []struct {
				Key      string `json:"key"`
				Fraction string `json:"fraction"`
			} `json:"shares"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.NotEmpty(t, body.ID)
	fractions := map[string]string{}
	for _, s := range body.Result.Shares {
		fractions[s.Key] = s.Fraction
	}
	assert.Equal(t, "2/5", fractions["grandfather"])
	assert.Equal(t, "1/5", fractions["full_sister"])
}

func TestCalculateCommand_CaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
madhab: hanafi
estate:
  total: 1000
  currency: jpy
heirs:
  mother: 1
  daughter: 1
`), 0o600))

	out, err := execute(t, "calculate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "JPY")
	assert.Contains(t, out, "750")
	assert.Contains(t, out, "250")

	// Flags win over the file.
	out, err = execute(t, "calculate", "-f", path, "-m", "shafii", "--total", "2000")
	require.NoError(t, err)
	assert.Contains(t, out, "Shafii")
	assert.Contains(t, out, "1500")
}

func TestCalculateCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing madhab", []string{"calculate", "--total", "1", "--heir", "son=1"}, "madhab is required"},
		{"bad amount", []string{"calculate", "-m", "shafii", "--total", "lots", "--heir", "son=1"}, "not a decimal amount"},
		{"unknown heir", []string{"calculate", "-m", "shafii", "--total", "1", "--heir", "cousin_twice_removed=1"}, "unknown heir"},
		{"spouse conflict", []string{"calculate", "-m", "shafii", "--total", "100", "--heir", "husband=1,wife=1"}, "input error (shafii)"},
		{"net not positive", []string{"calculate", "-m", "shafii", "--total", "100", "--debts", "100", "--heir", "son=1"}, "state error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("spouse conflict corrected", func(t *testing.T) {
		out, err := execute(t, "calculate", "--spouse-conflict", "correct", "-m", "shafii", "--total", "100",
			"--heir", "husband=1,wife=1")
		require.NoError(t, err)
		assert.Contains(t, out, "warning:")
	})
}

func TestCompareCommand(t *testing.T) {
	out, err := execute(t, "compare", "--total", "50000", "--heir", "grandfather=1,full_brother=1,full_sister=1")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "SHAFII")
	assert.Contains(t, lines[0], "HANBALI")
	assert.Contains(t, out, "2/5")
	assert.Contains(t, out, "share lines differ between schools")
}

func TestCatalogCommands(t *testing.T) {
	out, err := execute(t, "madhabs")
	require.NoError(t, err)
	assert.Contains(t, out, "hanbali")
	assert.Contains(t, out, "GRANDFATHER")

	out, err = execute(t, "heirs", "--category", "spouses", "--json")
	require.NoError(t, err)
	var keys []string
	require.NoError(t, json.Unmarshal([]byte(out), &keys))
	assert.Equal(t, []string{"husband", "wife"}, keys)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("AUTH_JWT_SIGNING_KEY", "cli-test-key")
	t.Setenv("AUTH_ISSUER", "faraid-cli")

	out, err := execute(t, "token", "--subject", "alice", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := jwttoken.NewService("cli-test-key", "faraid-cli").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}
