package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "single statement",
			script: "echo hello",
			want:   []string{"echo hello"},
		},
		{
			name:   "semicolon separated",
			script: "mkdir -p /tmp/a; cp x /tmp/a; ls /tmp/a",
			want:   []string{"mkdir -p /tmp/a", "cp x /tmp/a", "ls /tmp/a"},
		},
		{
			name:   "newline separated",
			script: "echo one\necho two",
			want:   []string{"echo one", "echo two"},
		},
		{
			name:   "semicolon inside double quotes",
			script: `echo "a;b"; echo c`,
			want:   []string{`echo "a;b"`, "echo c"},
		},
		{
			name:   "semicolon inside single quotes",
			script: "echo 'x;y'",
			want:   []string{"echo 'x;y'"},
		},
		{
			name:   "escaped quote does not open string",
			script: `echo \"; echo b`,
			want:   []string{`echo \"`, "echo b"},
		},
		{
			name:   "empty statements dropped",
			script: ";;echo a;\n\n;",
			want:   []string{"echo a"},
		},
		{
			name:   "empty script",
			script: "",
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.script))
		})
	}
}
