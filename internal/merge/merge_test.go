package merge

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/voxbl/friendsync/internal/document"
)

func parseList(t *testing.T, src string) []*document.Document {
	t.Helper()
	docs, err := document.ParseList([]byte(src))
	if err != nil {
		t.Fatalf("ParseList(%s) error = %v", src, err)
	}
	return docs
}

func marshal(t *testing.T, d *document.Document) string {
	t.Helper()
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return string(b)
}

func TestBuildPresenceIndex(t *testing.T) {
	tests := []struct {
		name     string
		presence string
		wantKeys []string
	}{
		{
			name:     "entry with timestamp is indexed",
			presence: `[{"xuid":"A","lastSeen":{"timestamp":"2024-01-01T00:00:00Z"}}]`,
			wantKeys: []string{"A"},
		},
		{
			name:     "entry without lastSeen is skipped",
			presence: `[{"xuid":"A","state":"Online"}]`,
			wantKeys: nil,
		},
		{
			name:     "lastSeen without timestamp is skipped",
			presence: `[{"xuid":"A","lastSeen":{"deviceType":"Console"}}]`,
			wantKeys: nil,
		},
		{
			name:     "entry without xuid is skipped",
			presence: `[{"lastSeen":{"timestamp":"2024-01-01T00:00:00Z"}}]`,
			wantKeys: nil,
		},
		{
			name: "mixed entries",
			presence: `[
				{"xuid":"A","lastSeen":{"timestamp":"t1"}},
				{"xuid":"B","state":"Online"},
				{"xuid":"C","lastSeen":{"timestamp":"t2"}}
			]`,
			wantKeys: []string{"A", "C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := BuildPresenceIndex(parseList(t, tt.presence))
			if len(index) != len(tt.wantKeys) {
				t.Fatalf("index has %d entries, want %d", len(index), len(tt.wantKeys))
			}
			for _, k := range tt.wantKeys {
				if _, ok := index[k]; !ok {
					t.Errorf("index missing key %q", k)
				}
			}
		})
	}
}

func TestBuildPresenceIndexLastWriteWins(t *testing.T) {
	index := BuildPresenceIndex(parseList(t, `[
		{"xuid":"A","lastSeen":{"timestamp":"first"}},
		{"xuid":"A","lastSeen":{"timestamp":"second"}}
	]`))

	lastSeen, ok := index["A"]
	if !ok {
		t.Fatal("index missing key A")
	}
	if ts, _ := lastSeen.StringValue("timestamp"); ts != "second" {
		t.Errorf("timestamp = %s, want second", ts)
	}
}

func TestApplyMergesPresenceFields(t *testing.T) {
	// The documented scenario: A gains presence fields, B is untouched.
	profiles := parseList(t, `[
		{"xuid":"A","isXbox360Gamerpic":false},
		{"xuid":"B","isXbox360Gamerpic":true}
	]`)
	presence := parseList(t, `[
		{"xuid":"A","lastSeen":{"timestamp":"2024-01-01T00:00:00Z","deviceType":"Console","titleId":"1","titleName":"Game"}}
	]`)

	merged := Apply(profiles, BuildPresenceIndex(presence))

	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}

	wantA := `{"xuid":"A","isXbox360Gamerpic":false,"deviceType":"Console","titleId":"1","titleName":"Game","lastSeenDateTimeUtc":"2024-01-01T00:00:00Z"}`
	if got := marshal(t, merged[0]); got != wantA {
		t.Errorf("merged[0] = %s\nwant %s", got, wantA)
	}

	wantB := `{"xuid":"B","isXbox360Gamerpic":true}`
	if got := marshal(t, merged[1]); got != wantB {
		t.Errorf("merged[1] = %s\nwant %s", got, wantB)
	}
}

func TestApplyOverwritesExistingLastSeen(t *testing.T) {
	profiles := parseList(t, `[{"xuid":"A","lastSeenDateTimeUtc":"old","isXbox360Gamerpic":false}]`)
	presence := parseList(t, `[{"xuid":"A","lastSeen":{"timestamp":"new","deviceType":"PC","titleId":"7","titleName":"T"}}]`)

	merged := Apply(profiles, BuildPresenceIndex(presence))

	want := `{"xuid":"A","lastSeenDateTimeUtc":"new","isXbox360Gamerpic":false,"deviceType":"PC","titleId":"7","titleName":"T"}`
	if got := marshal(t, merged[0]); got != want {
		t.Errorf("merged[0] = %s\nwant %s", got, want)
	}
}

func TestApplyInjectsNullForAbsentPresenceFields(t *testing.T) {
	profiles := parseList(t, `[{"xuid":"A","isXbox360Gamerpic":false}]`)
	presence := parseList(t, `[{"xuid":"A","lastSeen":{"timestamp":"t"}}]`)

	merged := Apply(profiles, BuildPresenceIndex(presence))

	want := `{"xuid":"A","isXbox360Gamerpic":false,"deviceType":null,"titleId":null,"titleName":null,"lastSeenDateTimeUtc":"t"}`
	if got := marshal(t, merged[0]); got != want {
		t.Errorf("merged[0] = %s\nwant %s", got, want)
	}
}

func TestApplyAppendsWhenAnchorMissing(t *testing.T) {
	profiles := parseList(t, `[{"xuid":"A","gamertag":"Tag"}]`)
	presence := parseList(t, `[{"xuid":"A","lastSeen":{"timestamp":"t","deviceType":"Console","titleId":"1","titleName":"G"}}]`)

	merged := Apply(profiles, BuildPresenceIndex(presence))

	want := `{"xuid":"A","gamertag":"Tag","lastSeenDateTimeUtc":"t","deviceType":"Console","titleId":"1","titleName":"G"}`
	if got := marshal(t, merged[0]); got != want {
		t.Errorf("merged[0] = %s\nwant %s", got, want)
	}
}

func TestApplyPreservesLengthAndOrder(t *testing.T) {
	profiles := parseList(t, `[
		{"xuid":"C"},
		{"xuid":"A"},
		{"xuid":"C"},
		{"xuid":"B"}
	]`)
	presence := parseList(t, `[{"xuid":"B","lastSeen":{"timestamp":"t"}}]`)

	merged := Apply(profiles, BuildPresenceIndex(presence))

	if len(merged) != 4 {
		t.Fatalf("len(merged) = %d, want 4", len(merged))
	}
	var order []string
	for _, p := range merged {
		xuid, _ := p.Key("xuid")
		order = append(order, xuid)
	}
	if got := strings.Join(order, ","); got != "C,A,C,B" {
		t.Errorf("order = %s, want C,A,C,B", got)
	}
}

func TestApplyEmptyInputs(t *testing.T) {
	merged := Apply(nil, BuildPresenceIndex(nil))
	if len(merged) != 0 {
		t.Errorf("len(merged) = %d, want 0", len(merged))
	}
}

func TestApplyUnmatchedProfileIsUntouched(t *testing.T) {
	src := `{"xuid":"Z","gamertag":"Tag","isXbox360Gamerpic":true,"extra":{"a":1}}`
	profiles := parseList(t, `[`+src+`]`)

	merged := Apply(profiles, map[string]*document.Document{})

	if got := marshal(t, merged[0]); got != src {
		t.Errorf("merged[0] = %s\nwant %s", got, src)
	}
}
