package visual

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafePath(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		path    string
		wantErr bool
	}{
		{"valid relative", "/tmp/shots", "baseline/default.png", false},
		{"valid absolute inside", "/tmp/shots", "/tmp/shots/default.png", false},
		{"traversal dotdot", "/tmp/shots", "../etc/passwd", true},
		{"traversal absolute", "/tmp/shots", "/etc/passwd", true},
		{"traversal hidden", "/tmp/shots", "a/../../etc/passwd", true},
		{"base itself", "/tmp/shots", "/tmp/shots", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := safePath(tt.base, tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("safePath(%q, %q) error = %v, wantErr %v", tt.base, tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestCheckName(t *testing.T) {
	s := newStore(t)
	assert.NoError(t, s.checkName("default"))
	for _, bad := range []string{"", "../default", "sub/default", ".", "/abs"} {
		assert.Error(t, s.checkName(bad), bad)
	}

	_, err := s.Capture(context.Background(), shooter{solid(1, 1, color.White)}, "../escape")
	assert.Error(t, err)
	_, err = s.Approve("../../etc/passwd")
	assert.Error(t, err)
}
