package smart

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// attributeFields maps SMART attribute ids to the Reading field they
// populate. Rows with ids outside this table are ignored.
const (
	attrReallocatedSectors   = 5
	attrPowerOnHours         = 9
	attrPowerCycleCount      = 12
	attrTemperature          = 194
	attrPendingSectors       = 197
	attrUncorrectableSectors = 198
)

// Parse converts raw diagnostic text into a Reading. healthText must
// contain the overall verdict line; when no recognizable verdict is
// present the reading's OverallHealth is HealthUnknown, not an error.
// attributesText is the optional attribute table; malformed rows are
// skipped individually and unrecognized attribute ids are ignored.
//
// Parse is a pure transformation apart from stamping CapturedAt.
func Parse(deviceID, healthText string, attributesText *string) (*Reading, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("parse diagnostics: empty device id")
	}

	r := &Reading{
		DeviceID:      deviceID,
		OverallHealth: parseHealth(healthText),
		CapturedAt:    time.Now().UTC(),
	}

	if attributesText != nil {
		parseAttributes(r, *attributesText)
	}

	return r, nil
}

// parseHealth scans for the overall self-assessment verdict. Both the ATA
// form ("SMART overall-health self-assessment test result: PASSED") and
// the SCSI/NVMe form ("SMART Health Status: OK") are recognized.
func parseHealth(text string) HealthStatus {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := scanner.Text()

		var verdict string
		switch {
		case strings.Contains(line, "overall-health self-assessment test result:"):
			_, verdict, _ = strings.Cut(line, "result:")
		case strings.Contains(line, "SMART Health Status:"):
			_, verdict, _ = strings.Cut(line, "Status:")
		default:
			continue
		}

		switch strings.ToUpper(strings.TrimSpace(verdict)) {
		case "PASSED", "OK":
			return HealthPassed
		case "FAILED", "FAILED!":
			return HealthFailed
		}
	}
	return HealthUnknown
}

// parseAttributes walks the smartctl attribute table and fills in the
// numeric fields of r. The table format is:
//
//	ID# ATTRIBUTE_NAME FLAG VALUE WORST THRESH TYPE UPDATED WHEN_FAILED RAW_VALUE
//
// A row is used only when it has the full column count, a numeric id, and
// a numeric raw value; anything else is skipped without aborting the scan.
func parseAttributes(r *Reading, text string) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}

		// Raw values may carry a trailing annotation such as
		// "36 (Min/Max 20/45)"; only the leading integer counts.
		raw, err := strconv.Atoi(fields[9])
		if err != nil {
			continue
		}

		switch id {
		case attrReallocatedSectors:
			r.ReallocatedSectors = intPtr(raw)
		case attrPowerOnHours:
			r.PowerOnHours = intPtr(raw)
		case attrPowerCycleCount:
			r.PowerCycleCount = intPtr(raw)
		case attrTemperature:
			r.TemperatureC = intPtr(raw)
		case attrPendingSectors:
			r.PendingSectors = intPtr(raw)
		case attrUncorrectableSectors:
			r.UncorrectableSectors = intPtr(raw)
		}
	}
}

func intPtr(v int) *int { return &v }
