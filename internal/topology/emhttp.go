package topology

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkellner/drivesentry/internal/pool"
)

// Compile-time interface check.
var _ Provider = (*EmhttpProvider)(nil)

// EmhttpProvider implements Provider by reading the appliance's emhttp
// state files. Drive inventory comes from {statePath}/disks.ini, a
// PHP-style ini file with one [section] per drive.
type EmhttpProvider struct {
	statePath string
	mountRoot string
}

// NewEmhttpProvider returns an EmhttpProvider reading state from
// statePath (normally /var/local/emhttp) and resolving mount points
// under mountRoot (normally /mnt).
func NewEmhttpProvider(statePath, mountRoot string) *EmhttpProvider {
	if mountRoot == "" {
		mountRoot = "/mnt"
	}
	return &EmhttpProvider{statePath: statePath, mountRoot: mountRoot}
}

// Devices reads disks.ini and returns every pool member drive. Sections
// without a device node (empty slots) are skipped.
func (p *EmhttpProvider) Devices() ([]Device, error) {
	path := filepath.Join(p.statePath, "disks.ini")
	sections, err := parseSectionedIni(path)
	if err != nil {
		return nil, fmt.Errorf("read disks.ini: %w", err)
	}

	devices := make([]Device, 0, len(sections))
	for _, section := range sections {
		kv := section.kv

		name := stripQuotes(kv["name"])
		if name == "" {
			name = section.name
		}
		node := stripQuotes(kv["device"])
		if node == "" {
			continue
		}

		d := Device{
			ID:     "/dev/" + node,
			Name:   name,
			Role:   roleForName(name),
			Status: stripQuotes(kv["status"]),
		}
		if d.Role == pool.RoleData {
			d.MountPoint = filepath.Join(p.mountRoot, name)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Lookup returns the device with the given id.
func (p *EmhttpProvider) Lookup(deviceID string) (*Device, error) {
	devices, err := p.Devices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].ID == deviceID {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("device %s not found in pool topology", deviceID)
}

// ClassifyDevice maps a device id onto its pool role.
func (p *EmhttpProvider) ClassifyDevice(deviceID string) (pool.Role, error) {
	d, err := p.Lookup(deviceID)
	if err != nil {
		return "", err
	}
	return d.Role, nil
}

// Counts returns the number of data and parity drives in the pool.
func (p *EmhttpProvider) Counts() (int, int, error) {
	devices, err := p.Devices()
	if err != nil {
		return 0, 0, err
	}
	data, parity := 0, 0
	for _, d := range devices {
		if d.Role == pool.RoleParity {
			parity++
		} else {
			data++
		}
	}
	return data, parity, nil
}

// roleForName classifies a drive by its appliance logical name: parity
// slots are named "parity", "parity2", ...; everything else holds data.
func roleForName(name string) pool.Role {
	if strings.HasPrefix(strings.ToLower(name), "parity") {
		return pool.RoleParity
	}
	return pool.RoleData
}

// ---------------------------------------------------------------------------
// Internal ini parsing
// ---------------------------------------------------------------------------

// iniSection holds the name of a section and its key-value pairs.
type iniSection struct {
	name string
	kv   map[string]string
}

// parseSectionedIni reads a [section]-style ini file (like disks.ini) and
// returns sections in the order they appear in the file. Blank lines,
// comments, and lines without "=" are ignored.
func parseSectionedIni(path string) ([]iniSection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var sections []iniSection
	currentIdx := -1

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := stripQuotes(line[1 : len(line)-1])
			sections = append(sections, iniSection{name: name, kv: make(map[string]string)})
			currentIdx = len(sections) - 1
			continue
		}
		if currentIdx < 0 {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		sections[currentIdx].kv[key] = val
	}
	return sections, scanner.Err()
}

// stripQuotes removes one layer of surrounding double quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
