package cmd

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"ecmd/internal/config"
	"ecmd/internal/version"
)

// isolate points config lookups at an empty temp directory and runs the
// test from another one.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	t.Setenv(config.EnvPath, "")
	chdir(t, t.TempDir())
	return home
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	cmd := newVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version.Version, strings.TrimSpace(buf.String()))
}

func TestVersionCmd_Long(t *testing.T) {
	out, err := execute(t, "", "version", "--long")
	require.NoError(t, err)
	assert.Equal(t, version.Banner(), strings.TrimSpace(out))
}

func TestRoot_HeadlessScript(t *testing.T) {
	isolate(t)
	out, err := execute(t, "ver\nexit 7\n", "--headless", "--no-header")

	var code ExitCode
	require.ErrorAs(t, err, &code)
	assert.Equal(t, ExitCode(7), code)
	assert.Contains(t, out, version.Banner())
	assert.Contains(t, out, ">exit 7")
}

func TestRoot_HeadlessHeader(t *testing.T) {
	isolate(t)
	out, err := execute(t, "exit\n", "--headless")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, version.Header()[0]), "output should start with the header:\n%s", out)
}

func TestRoot_HeadlessEchoOff(t *testing.T) {
	isolate(t)
	out, err := execute(t, "exit\n", "--headless", "--no-header", "-q")
	require.NoError(t, err)
	assert.NotContains(t, out, ">", "prompt printed with echo off")
}

func TestRoot_HeadlessShellCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh on PATH")
	}
	isolate(t)
	t.Setenv("SHELL", "/bin/sh")
	out, err := execute(t, "", "--headless", "--set", "dialect=posix", "-c", "echo from-the-shell")
	require.NoError(t, err)
	assert.Contains(t, out, "from-the-shell\n")
}

func TestRoot_FlagErrors(t *testing.T) {
	isolate(t)
	tests := []struct {
		name string
		args []string
	}{
		{"command and keep", []string{"--headless", "-c", "a", "-k", "b"}},
		{"positional args", []string{"--headless", "dir"}},
		{"bad override", []string{"--headless", "--set", "nope=1"}},
		{"missing dir", []string{"--headless", "--dir", "/does/not/exist"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "exit\n", tt.args...)
			require.Error(t, err)
			var code ExitCode
			assert.False(t, errors.As(err, &code), "got exit code %d, want a usage error", code)
		})
	}
}

func TestLoadConfig_Layering(t *testing.T) {
	home := isolate(t)
	path := writeFile(t, filepath.Join(home, "ecmd.yaml"), `
shell: /bin/bash -c
plugin_paths: [/from/file]
echo: true
`)
	cfg, err := loadConfig(&rootOptions{
		configPath:     path,
		fileCompletion: true,
		echoOff:        true,
		pluginPaths:    []string{"/from/flag"},
		set:            []string{"shell=/bin/zsh -c", "echo=on"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/bin/zsh -c", cfg.Shell, "--set should override the file")
	assert.False(t, cfg.EchoEnabled(), "-q should win over --set echo=on")
	assert.True(t, cfg.FileCompletion)
	assert.Equal(t, []string{"/from/file", "/from/flag"}, cfg.PluginPaths)
}

func TestLoadConfig_EnvPath(t *testing.T) {
	home := isolate(t)
	t.Setenv(config.EnvPath, writeFile(t, filepath.Join(home, "env.yaml"), "dialect: cmd\n"))
	cfg, err := loadConfig(&rootOptions{})
	require.NoError(t, err)
	assert.Equal(t, "cmd", cfg.Dialect)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	home := isolate(t)
	path := writeFile(t, filepath.Join(home, "bad.yaml"), "dialect: fish\n")
	_, err := loadConfig(&rootOptions{configPath: path})
	assert.Error(t, err)
}

func TestHandlersCmd(t *testing.T) {
	home := isolate(t)
	plugins := filepath.Join(home, "plugins")
	require.NoError(t, os.Mkdir(plugins, 0o755))
	writeFile(t, filepath.Join(plugins, "hello.lua"), `
return {
  description = "Says hello",
  author = "tests",
  commands = {"hello"},
  process = function(ev) end,
}`)

	out, err := execute(t, "", "handlers", "--plugin-path", plugins)
	require.NoError(t, err)
	for _, want := range []string{"ignorable", "commands", "fallback", "Enter", "Passthrough", "Unbound", "Says hello [hello] (tests)"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "hello "), strings.Index(out, "Passthrough"),
		"plugin command should precede the built-ins")
}

func TestConfigCmd(t *testing.T) {
	isolate(t)
	out, err := execute(t, "", "config", "--set", "dialect=posix", "--set", "drive_paths.d=/mnt/d")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg), "output is not YAML:\n%s", out)
	assert.Equal(t, "posix", cfg.Dialect)
	assert.Equal(t, "/mnt/d", cfg.DrivePaths["d"])
	require.NotNil(t, cfg.Echo, "echo should be printed")
	assert.True(t, *cfg.Echo)
}

func TestConfigCmd_Path(t *testing.T) {
	isolate(t)
	out, err := execute(t, "", "config", "--path", "--config", "/etc/ecmd.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/ecmd.yaml", strings.TrimSpace(out))
}
