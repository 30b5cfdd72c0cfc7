package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/born-ml/qweights/internal/logger"
	"github.com/born-ml/qweights/internal/parallel"
	"github.com/born-ml/qweights/internal/quant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Missing(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, File{}, f)

	f, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, File{}, f)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "bit_width: 32\nscaling_mode: scalar\nworkers: 4\nmin_chunk: 128\nlog_level: debug\nlog_format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, f.BitWidth)
	assert.Equal(t, uint(32), *f.BitWidth)

	q, err := f.Quant()
	require.NoError(t, err)
	assert.Equal(t, uint(32), q.BitWidth())
	assert.Equal(t, quant.ScalingScalar, q.Scaling())

	p, err := f.Parallel()
	require.NoError(t, err)
	assert.Equal(t, parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 128}, p)

	lvl, err := f.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	format, err := f.Format()
	require.NoError(t, err)
	assert.Equal(t, logger.FormatJSON, format)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bit_width: [1\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse(strings.NewReader("act_bits: 1\n"))
	require.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, File{}, f)
}

func TestQuant_Defaults(t *testing.T) {
	q, err := File{}.Quant()
	require.NoError(t, err)
	assert.Equal(t, quant.DefaultConfig(), q)
}

func TestQuant_Errors(t *testing.T) {
	zero := uint(0)
	_, err := File{BitWidth: &zero}.Quant()
	require.ErrorIs(t, err, quant.ErrConfig)

	_, err = File{ScalingMode: "median"}.Quant()
	require.ErrorIs(t, err, quant.ErrConfig)

	// In range but not implemented: loading succeeds, use fails later.
	eight := uint(8)
	q, err := File{BitWidth: &eight}.Quant()
	require.NoError(t, err)
	require.ErrorIs(t, q.Supported(), quant.ErrUnimplemented)
}

func TestParallel(t *testing.T) {
	one := 1
	p, err := File{Workers: &one}.Parallel()
	require.NoError(t, err)
	assert.False(t, p.Enabled)
	assert.Equal(t, 1, p.NumWorkers)

	p, err = File{}.Parallel()
	require.NoError(t, err)
	assert.Equal(t, parallel.DefaultConfig(), p)

	zero := 0
	_, err = File{Workers: &zero}.Parallel()
	require.Error(t, err)
	_, err = File{MinChunk: &zero}.Parallel()
	require.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	if p := DefaultPath(); p != "" {
		assert.Equal(t, "config.yaml", filepath.Base(p))
	}
}

func TestParams(t *testing.T) {
	bits := uint(32)
	assert.Equal(t, map[string]string{"bit_width": "32", "scaling_mode": "scalar"},
		File{BitWidth: &bits, ScalingMode: "scalar"}.Params())
	assert.Equal(t, map[string]string{"bit_width": "1", "scaling_mode": "none"}, File{}.Params())
}
