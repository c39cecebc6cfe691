package safety

import (
	"testing"
)

func Test_Filter_IsAllowed_Cases(t *testing.T) {
	tests := []struct {
		name      string
		allowlist []string
		denylist  []string
		resource  string
		want      bool
	}{
		{
			name:      "empty lists allow everything",
			allowlist: []string{},
			denylist:  []string{},
			resource:  "anything",
			want:      true,
		},
		{
			name:      "nil lists allow everything",
			allowlist: nil,
			denylist:  nil,
			resource:  "anything",
			want:      true,
		},
		{
			name:      "in allowlist is allowed",
			allowlist: []string{"disk1", "disk2"},
			denylist:  []string{},
			resource:  "disk1",
			want:      true,
		},
		{
			name:      "not in allowlist is denied",
			allowlist: []string{"disk1", "disk2"},
			denylist:  []string{},
			resource:  "disk3",
			want:      false,
		},
		{
			name:      "in denylist is denied",
			allowlist: []string{},
			denylist:  []string{"cache"},
			resource:  "cache",
			want:      false,
		},
		{
			name:      "denylist wins over allowlist",
			allowlist: []string{"disk1", "cache"},
			denylist:  []string{"cache"},
			resource:  "cache",
			want:      false,
		},
		{
			name:      "glob pattern in denylist matches",
			allowlist: []string{},
			denylist:  []string{"*usb*"},
			resource:  "usb-boot-flash",
			want:      false,
		},
		{
			name:      "glob pattern in allowlist matches",
			allowlist: []string{"disk*"},
			denylist:  []string{},
			resource:  "disk10",
			want:      true,
		},
		{
			name:      "glob pattern no match in allowlist",
			allowlist: []string{"disk*"},
			denylist:  []string{},
			resource:  "cache",
			want:      false,
		},
		{
			name:      "glob denylist takes priority over glob allowlist",
			allowlist: []string{"*disk*"},
			denylist:  []string{"*usb*"},
			resource:  "usb-disk-dock",
			want:      false,
		},
		{
			name:      "exact match in denylist with glob allowlist",
			allowlist: []string{"*"},
			denylist:  []string{"sdz"},
			resource:  "sdz",
			want:      false,
		},
		{
			name:      "wildcard allowlist allows non-denied",
			allowlist: []string{"*"},
			denylist:  []string{"sdz"},
			resource:  "sda",
			want:      true,
		},
		{
			name:      "empty resource name with empty lists",
			allowlist: []string{},
			denylist:  []string{},
			resource:  "",
			want:      true,
		},
		{
			name:      "empty resource name not in allowlist",
			allowlist: []string{"disk1"},
			denylist:  []string{},
			resource:  "",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.allowlist, tt.denylist)
			if f == nil {
				t.Fatal("NewFilter() returned nil")
			}

			got := f.IsAllowed(tt.resource)
			if got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v (allowlist=%v, denylist=%v)",
					tt.resource, got, tt.want, tt.allowlist, tt.denylist)
			}
		})
	}
}

func Test_NewFilter_ReturnsNonNil(t *testing.T) {
	tests := []struct {
		name      string
		allowlist []string
		denylist  []string
	}{
		{name: "both nil", allowlist: nil, denylist: nil},
		{name: "both empty", allowlist: []string{}, denylist: []string{}},
		{name: "populated", allowlist: []string{"a"}, denylist: []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.allowlist, tt.denylist)
			if f == nil {
				t.Error("NewFilter() should never return nil")
			}
		})
	}
}
