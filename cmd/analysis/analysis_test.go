package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jcalabro/approx"
	"github.com/stretchr/testify/require"
)

func TestTruncated(t *testing.T) {
	_, err := truncated(0)
	require.ErrorIs(t, err, errBadBits)
	_, err = truncated(65)
	require.ErrorIs(t, err, errBadBits)

	seed := approx.NewSeed()

	full, err := truncated(64)
	require.NoError(t, err)
	require.Equal(t, approx.String(seed, "abc"), full(seed, "abc"))

	h, err := truncated(8)
	require.NoError(t, err)
	for _, key := range []string{"a", "b", "c", "item-1"} {
		code := h(seed, key)
		require.Less(t, code, uint64(256))
		require.Equal(t, approx.String(seed, key)&0xff, code)
	}
}

func TestNewFilterVariants(t *testing.T) {
	for _, variant := range []string{"set", "sync", "sharded"} {
		f, err := newFilter(variant, approx.String)
		require.NoError(t, err, variant)
		require.True(t, f.Insert("x"), variant)
		require.False(t, f.Insert("x"), variant)
		require.True(t, f.PossiblyContains("x"), variant)
	}

	_, err := newFilter("bitarray", approx.String)
	require.ErrorIs(t, err, errUnknownVariant)
}

func TestRunExperimentFullWidth(t *testing.T) {
	f, err := newFilter("set", approx.String)
	require.NoError(t, err)

	res, err := runExperiment(context.Background(), local{f}, experimentConfig{
		Items:  2000,
		Probes: 2000,
		Bits:   64,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2000), res.New)
	require.Zero(t, res.FalsePositives)
	require.Zero(t, res.ObservedRate())
	require.Less(t, res.EstimatedRate(), 1e-12)
}

func TestRunExperimentTruncated(t *testing.T) {
	h, err := truncated(4)
	require.NoError(t, err)
	f, err := newFilter("sharded", h)
	require.NoError(t, err)

	res, err := runExperiment(context.Background(), local{f}, experimentConfig{
		Items:  200,
		Probes: 1000,
		Bits:   4,
	})
	require.NoError(t, err)

	// Only 16 distinct codes exist, so most inserts collide and most
	// probes are false positives.
	require.LessOrEqual(t, res.New, uint64(16))
	require.Greater(t, res.FalsePositives, uint64(0))
	require.Greater(t, res.EstimatedRate(), 0.5)
}

// forgetful drops every insert, so it reports inserted keys as absent.
type forgetful struct{}

func (forgetful) Insert(context.Context, string) (bool, error)           { return true, nil }
func (forgetful) PossiblyContains(context.Context, string) (bool, error) { return false, nil }

func TestRunExperimentDetectsFalseNegatives(t *testing.T) {
	_, err := runExperiment(context.Background(), forgetful{}, experimentConfig{
		Items: 1,
		Bits:  64,
	})
	require.ErrorIs(t, err, errFalseNegative)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	root := a.newRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level=error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFPCommand(t *testing.T) {
	out, err := execute(t, "fp", "--items", "500", "--probes", "500", "--bits", "8", "--runs", "3", "--variant", "sync")
	require.NoError(t, err)
	require.Contains(t, out, "RUN")
	require.Contains(t, out, "ESTIMATED")

	// Header plus one line per run.
	require.Equal(t, 4, bytes.Count([]byte(out), []byte("\n")))
}

func TestFPCommandEnv(t *testing.T) {
	t.Setenv("APPROX_VARIANT", "bogus")

	_, err := execute(t, "fp", "--items", "10", "--probes", "10")
	require.ErrorIs(t, err, errUnknownVariant)
}

func TestFPCommandValidation(t *testing.T) {
	_, err := execute(t, "fp", "--bits", "0")
	require.ErrorIs(t, err, errBadBits)

	_, err = execute(t, "fp", "--runs", "0")
	require.ErrorIs(t, err, errBadRuns)

	_, err = execute(t, "fp", "--log-level", "loud")
	require.Error(t, err)
}

func TestRedisCommand(t *testing.T) {
	mr := miniredis.RunT(t)

	out, err := execute(t, "redis",
		"--redis-url", "redis://"+mr.Addr(),
		"--items", "100",
		"--probes", "100",
		"--key-prefix", "test:",
	)
	require.NoError(t, err)
	require.Contains(t, out, "ESTIMATED")

	keys := mr.Keys()
	require.Len(t, keys, 1)
	require.Contains(t, keys[0], "test:")

	members, err := mr.SMembers(keys[0])
	require.NoError(t, err)
	require.Len(t, members, 100)
}

func TestRedisCommandURLFromEnv(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("APPROX_REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("APPROX_KEY_PREFIX", "env:")

	_, err := execute(t, "redis", "--items", "10", "--probes", "10")
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	require.Contains(t, keys[0], "env:")
}

func TestRedisCommandRequiresURL(t *testing.T) {
	_, err := execute(t, "redis")
	require.Error(t, err)
	require.Contains(t, err.Error(), "APPROX_REDIS_URL")
}
