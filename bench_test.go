package seqjson_test

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	goccy "github.com/goccy/go-json"
	jsoniter "github.com/json-iterator/go"
	segmentio "github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"seqjson"
)

type Release struct {
	ID        int               `json:"id"`
	Service   string            `json:"service"`
	Approved  bool              `json:"approved"`
	Canary    float64           `json:"canary"`
	CreatedAt time.Time         `json:"created_at"`
	Owner     *Owner            `json:"owner,omitempty"`
	Stages    []Stage           `json:"stages"`
	Labels    map[string]string `json:"labels"`
	Extra     []interface{}     `json:"extra"`
}

type Owner struct {
	Team  string `json:"team"`
	Email string `json:"email"`
}

type Stage struct {
	Name     string        `json:"name"`
	Replicas int           `json:"replicas"`
	Started  time.Time     `json:"started"`
	Checks   []string      `json:"checks"`
	Results  []StageResult `json:"results"`
}

type StageResult struct {
	Check  string  `json:"check"`
	Passed bool    `json:"passed"`
	Score  float64 `json:"score"`
}

var (
	releaseAt = time.Date(2024, 3, 19, 8, 0, 0, 0, time.UTC)

	release = Release{
		ID:        4211,
		Service:   "ingest-gateway",
		Approved:  true,
		Canary:    12.5,
		CreatedAt: releaseAt,
		Owner:     &Owner{Team: "platform", Email: "platform@example.com"},
		Stages: []Stage{
			{
				Name:     "canary",
				Replicas: 2,
				Started:  releaseAt.Add(10 * time.Minute),
				Checks:   []string{"latency", "errors"},
				Results: []StageResult{
					{Check: "latency", Passed: true, Score: 0.97},
					{Check: "errors", Passed: true, Score: 1},
				},
			},
			{
				Name:     "rollout",
				Replicas: 24,
				Started:  releaseAt.Add(time.Hour),
				Checks:   []string{"saturation"},
				Results:  []StageResult{},
			},
		},
		Labels: map[string]string{"region": "eu-west", "tier": "edge"},
		Extra:  []interface{}{1.0, "note", true, nil, map[string]interface{}{"retries": 3.0}},
	}

	releaseJSON, _  = json.Marshal(release)
	releaseSegments = seqjson.ChunkSequence(releaseJSON, 16)
)

var libraries = []struct {
	name      string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}{
	{"std", json.Marshal, json.Unmarshal},
	{"seqjson", func(v any) ([]byte, error) { return seqjson.Marshal(v) }, func(b []byte, v any) error { return seqjson.Unmarshal(b, v) }},
	{"jsoniter", jsoniter.ConfigCompatibleWithStandardLibrary.Marshal, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal},
	{"sonic", sonic.ConfigStd.Marshal, sonic.ConfigStd.Unmarshal},
	{"segmentio", segmentio.Marshal, segmentio.Unmarshal},
	{"goccy", goccy.Marshal, goccy.Unmarshal},
}

func BenchmarkMarshal(b *testing.B) {
	for _, lib := range libraries {
		b.Run(lib.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = lib.marshal(release)
			}
		})
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	for _, lib := range libraries {
		b.Run(lib.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				var r Release
				_ = lib.unmarshal(releaseJSON, &r)
			}
		})
	}
}

func BenchmarkUnmarshalSegmented(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var r Release
		_ = seqjson.UnmarshalSequence(releaseSegments, &r)
	}
}

func BenchmarkMarshalToDiscard(b *testing.B) {
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		_ = seqjson.MarshalTo(ctx, io.Discard, release)
	}
}

func BenchmarkExtractNestedValue(b *testing.B) {
	b.Run("seqjson", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			or, err := seqjson.NewObjectReader(seqjson.NewSequence(releaseJSON), nil)
			if err != nil {
				b.Fatal(err)
			}
			owner, _ := seqjson.ReadObjectProperty[Owner](or, "owner")
			_ = owner.Team
		}
	})
	b.Run("gjson", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = gjson.GetBytes(releaseJSON, "owner.team").String()
		}
	})
}

func TestProfileMarshalCPU(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping profile test in short mode")
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "marshal_cpu.prof"))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, pprof.StartCPUProfile(f))
	defer pprof.StopCPUProfile()

	for i := 0; i < 10000; i++ {
		_, err := seqjson.Marshal(release)
		require.NoError(t, err)
	}
}

func TestProfileMarshalMemory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping profile test in short mode")
	}
	dir := t.TempDir()

	writeHeap := func(name string) {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		defer f.Close()
		require.NoError(t, pprof.WriteHeapProfile(f))
	}

	runtime.GC()
	writeHeap("marshal_mem_before.prof")
	for i := 0; i < 10000; i++ {
		_, err := seqjson.Marshal(release)
		require.NoError(t, err)
	}
	writeHeap("marshal_mem_after.prof")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

// The codec must agree with every library it is benchmarked against.
func TestMatchesOtherLibraries(t *testing.T) {
	ours, err := seqjson.Marshal(release)
	require.NoError(t, err)

	for _, lib := range libraries {
		theirs, err := lib.marshal(release)
		require.NoError(t, err, lib.name)
		require.JSONEq(t, string(theirs), string(ours), lib.name)
	}

	var fromStd, fromSeq Release
	require.NoError(t, json.Unmarshal(releaseJSON, &fromStd))
	require.NoError(t, seqjson.Unmarshal(releaseJSON, &fromSeq))
	require.Equal(t, fromStd, fromSeq)

	var segmented Release
	require.NoError(t, seqjson.UnmarshalSequence(releaseSegments, &segmented))
	require.Equal(t, fromStd, segmented)
	require.Equal(t, "platform", gjson.GetBytes(releaseJSON, "owner.team").String())
	require.Equal(t, "platform", segmented.Owner.Team)
}
