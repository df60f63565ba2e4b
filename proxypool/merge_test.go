package manager

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"viewsim/proxypool/model"
)

func rec(addr string, port int, source string) *model.ProxyRecord {
	return &model.ProxyRecord{Address: addr, Port: port, Protocol: model.ProtocolHTTP, Status: model.StatusUnchecked, Source: source}
}

func TestMerge_DedupKeepsLastRecordAtFirstPosition(t *testing.T) {
	a := []*model.ProxyRecord{rec("1.1.1.1", 80, "a"), rec("2.2.2.2", 80, "a")}
	b := []*model.ProxyRecord{rec("3.3.3.3", 80, "b"), rec("1.1.1.1", 80, "b")}

	merged := Merge([][]*model.ProxyRecord{a, nil, b}, DefaultCandidateCap)
	require.Len(t, merged, 3)
	require.Equal(t, "1.1.1.1:80", merged[0].Key())
	require.Equal(t, "b", merged[0].Source)
	require.Equal(t, "2.2.2.2:80", merged[1].Key())
	require.Equal(t, "3.3.3.3:80", merged[2].Key())
}

func TestMerge_Cap(t *testing.T) {
	var list []*model.ProxyRecord
	for i := 0; i < 120; i++ {
		list = append(list, rec(fmt.Sprintf("10.0.%d.%d", i/256, i%256), 8080, "x"))
		list = append(list, rec(fmt.Sprintf("10.0.%d.%d", i/256, i%256), 8080, "dup"))
	}
	merged := Merge([][]*model.ProxyRecord{list}, DefaultCandidateCap)
	require.Len(t, merged, DefaultCandidateCap)

	seen := map[string]bool{}
	for _, p := range merged {
		require.False(t, seen[p.Key()])
		seen[p.Key()] = true
	}
	require.Len(t, Merge([][]*model.ProxyRecord{list}, 0), 120)
}

func TestParseManualList(t *testing.T) {
	got, err := ParseManualList("1.1.1.1:8080\n2.2.2.2:3128\n1.1.1.1:8080\njunk")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "manual", got[0].Source)

	got, err = ParseManualList("  \n ")
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = ParseManualList("junk\nmore junk")
	require.ErrorIs(t, err, ErrMalformedProxyList)
}
