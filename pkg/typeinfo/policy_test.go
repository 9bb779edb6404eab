package typeinfo_test

import (
	"reflect"
	"testing"

	"github.com/aretw0/prism/pkg/typeinfo"
	"github.com/stretchr/testify/assert"
)

func TestPolicy_Filter(t *testing.T) {
	all := typeinfo.Members(reflect.TypeFor[*Sample](), typeinfo.Options{})

	tests := []struct {
		name   string
		policy typeinfo.Policy
		want   []string
	}{
		{
			name: "default drops ignored and pointer-shaped",
			want: []string{"Depth", "Name", "Count", "Tags", "Scores", "Flat", "Pos"},
		},
		{
			name:   "whitelist admits only listed names",
			policy: typeinfo.Policy{Whitelist: []string{"Count", "Label"}, Blacklist: []string{"Count"}},
			want:   []string{"Name", "Count"},
		},
		{
			name:   "blacklist excludes listed names",
			policy: typeinfo.Policy{Blacklist: []string{"Tags", "Scores"}},
			want:   []string{"Depth", "Name", "Count", "Flat", "Pos"},
		},
		{
			name:   "whitelist cannot resurrect ignored members",
			policy: typeinfo.Policy{Whitelist: []string{"Skip", "Raw"}},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Filter(all, typeinfo.Reading)
			assert.Equal(t, tt.want, memberNames(got))
		})
	}
}

func TestPolicy_Direction(t *testing.T) {
	ms := typeinfo.Members(reflect.TypeFor[*Gauge](), typeinfo.Options{Methods: true})
	p := typeinfo.Policy{}

	assert.Equal(t, []string{"Level", "Peak"}, memberNames(p.Filter(ms, typeinfo.Reading)))
	assert.Equal(t, []string{"Level"}, memberNames(p.Filter(ms, typeinfo.Writing)))
}
