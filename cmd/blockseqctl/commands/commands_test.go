package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wavecore/blockseq/internal/config"
	"github.com/wavecore/blockseq/pkg/sample"
)

func TestParseRangeArgsRejectsNonNumeric(t *testing.T) {
	_, _, err := parseRangeArgs("abc", "4")
	require.Error(t, err)

	at, length, err := parseRangeArgs("10", "20")
	require.NoError(t, err)
	require.EqualValues(t, 10, at)
	require.EqualValues(t, 20, length)
}

// withFilesystemConfig points loadConfig at a fresh config.yaml backed by a
// filesystem store under a temp directory, so successive command
// invocations in a test see the same persisted blocks.
func withFilesystemConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cfg := config.GetDefaultConfig()
	cfg.Store.Type = "filesystem"
	cfg.Store.Path = filepath.Join(dir, "store")
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.SaveConfig(cfg, configPath))

	Flags.ConfigPath = configPath
	t.Cleanup(func() { Flags.ConfigPath = "" })

	return dir
}

func writeTestWAV(t *testing.T, path string) {
	t.Helper()
	buf := sample.FromFloat64(sample.Float32, []float64{0.1, 0.2, -0.1, -0.2, 0.3})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, sample.WriteWAV(f, buf, 44100))
}

func TestImportInfoExportRoundTrip(t *testing.T) {
	dir := withFilesystemConfig(t)
	wavPath := filepath.Join(dir, "in.wav")
	xmlPath := filepath.Join(dir, "seq.xml")
	outWavPath := filepath.Join(dir, "out.wav")
	writeTestWAV(t, wavPath)

	cmd := GetRootCmd()
	cmd.SetArgs([]string{"import", wavPath, xmlPath, "--config", Flags.ConfigPath})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(xmlPath)
	require.NoError(t, err)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"info", xmlPath, "--config", Flags.ConfigPath, "-o", "json"})
	require.NoError(t, cmd.Execute())

	cmd.SetArgs([]string{"export", xmlPath, outWavPath, "--config", Flags.ConfigPath})
	require.NoError(t, cmd.Execute())

	_, err = os.Stat(outWavPath)
	require.NoError(t, err)
}

func TestEditDeleteShrinksSequence(t *testing.T) {
	dir := withFilesystemConfig(t)
	wavPath := filepath.Join(dir, "in.wav")
	xmlPath := filepath.Join(dir, "seq.xml")
	writeTestWAV(t, wavPath)

	cmd := GetRootCmd()
	cmd.SetArgs([]string{"import", wavPath, xmlPath, "--config", Flags.ConfigPath})
	require.NoError(t, cmd.Execute())

	cmd.SetArgs([]string{"edit", "delete", xmlPath, "0", "2", "--config", Flags.ConfigPath})
	require.NoError(t, cmd.Execute())

	probeCmd := GetRootCmd()
	probeCmd.SetContext(context.Background())
	s, closeStore, err := loadSequenceXML(probeCmd, xmlPath)
	require.NoError(t, err)
	defer closeStore()
	require.EqualValues(t, 3, s.Len())
}
