package calibration

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const xmlconFixture = `<?xml version="1.0" encoding="UTF-8"?>
<SBE_InstrumentConfiguration SB_ConfigCTD_FileVersion="7.23.0.2">
  <Instrument Type="8">
    <SensorArray Size="3">
      <Sensor index="0" SensorID="55">
        <TemperatureSensor SensorID="55">
          <SerialNumber>6789</SerialNumber>
          <CalibrationDate>08-Apr-13</CalibrationDate>
          <A0>1.252e-3</A0>
          <A1>2.751e-4</A1>
        </TemperatureSensor>
      </Sensor>
      <Sensor index="1" SensorID="3">
        <ConductivitySensor SensorID="3">
          <SerialNumber>9999</SerialNumber>
          <CalibrationDate>09-Apr-13</CalibrationDate>
          <G>-1.046</G>
          <A0>9.9</A0>
          <CPcor>-9.57e-8</CPcor>
        </ConductivitySensor>
      </Sensor>
      <Sensor index="2" SensorID="38">
        <OxygenSensor SensorID="38">
          <SerialNumber>1111</SerialNumber>
          <SOC>0.5123</SOC>
          <A>-3.1e-3</A>
        </OxygenSensor>
      </Sensor>
    </SensorArray>
  </Instrument>
</SBE_InstrumentConfiguration>
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadXMLCON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "SBE16plus_6789.xmlcon", xmlconFixture)

	rec := NewRecord()
	require.NoError(t, NewCTDParser(nil).ReadCal(path, rec))

	t.Run("identity", func(t *testing.T) {
		assert.Equal(t, "16-6789", rec.Serial, "first SerialNumber wins, family prefix applied")
		assert.Equal(t, time.Date(2013, time.April, 8, 0, 0, 0, 0, time.UTC), rec.Date,
			"first CalibrationDate wins")
	})

	t.Run("temperature block scoping", func(t *testing.T) {
		assert.Equal(t, "1.252e-3", rec.Coefficients["CC_a0"])
		assert.Equal(t, "2.751e-4", rec.Coefficients["CC_a1"])
		// The conductivity A0 sits outside the temperature block; its bare
		// key has no canonical mapping and must be dropped.
		assert.NotEqual(t, "9.9", rec.Coefficients["CC_a0"])
	})

	t.Run("conductivity keys uppercased", func(t *testing.T) {
		assert.Equal(t, "-1.046", rec.Coefficients["CC_g"])
		assert.Equal(t, "-9.57e-8", rec.Coefficients["CC_cpcor"])
	})

	t.Run("oxygen coefficients included", func(t *testing.T) {
		assert.Equal(t, "0.5123", rec.Coefficients["CC_oxygen_signal_slope"])
		assert.Equal(t, "-3.1e-3", rec.Coefficients["CC_residual_temperature_correction_factor_a"])
	})
}

func TestReadXMLCONOxygenGating(t *testing.T) {
	t.Run("included regardless of element order", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "cal.xmlcon", `<Config>
  <SOC>0.77</SOC>
  <OxygenSensor>
    <OFFSET>-0.51</OFFSET>
  </OxygenSensor>
</Config>`)

		rec := NewRecord()
		require.NoError(t, NewCTDParser(nil).ReadCal(path, rec))
		assert.Equal(t, "0.77", rec.Coefficients["CC_oxygen_signal_slope"])
		assert.Equal(t, "-0.51", rec.Coefficients["CC_frequency_offset"])
	})

	t.Run("dropped without an oxygen sensor section", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "cal.xmlcon", `<Config>
  <SOC>0.77</SOC>
  <OFFSET>-0.51</OFFSET>
</Config>`)

		rec := NewRecord()
		require.NoError(t, NewCTDParser(nil).ReadCal(path, rec))
		assert.NotContains(t, rec.Coefficients, "CC_oxygen_signal_slope")
		assert.NotContains(t, rec.Coefficients, "CC_frequency_offset")
	})
}

// The traversal state machine is a pure fold over the element tree; exercise
// it directly without files.
func TestWalkXMLCONState(t *testing.T) {
	node := func(tag string, children ...xmlconNode) xmlconNode {
		return xmlconNode{XMLName: xml.Name{Local: tag}, Children: children}
	}
	leaf := func(tag, text string) xmlconNode {
		return xmlconNode{XMLName: xml.Name{Local: tag}, Text: text}
	}

	t.Run("temperature flag cleared by next sensor", func(t *testing.T) {
		tree := node("Root",
			node("Sensor", node("TemperatureSensor", leaf("A0", "1"))),
			node("Sensor", leaf("A0", "2")),
		)
		rec := NewRecord()
		state, err := walkXMLCON(&tree, xmlconState{pendingOxygen: map[string]string{}}, rec)
		require.NoError(t, err)
		assert.False(t, state.inTemperatureBlock)
		assert.Equal(t, "1", rec.Coefficients["CC_a0"])
	})

	t.Run("oxygen flag latches", func(t *testing.T) {
		tree := node("Root",
			node("OxygenSensor"),
			node("Sensor"),
			leaf("SOC", "3"),
		)
		rec := NewRecord()
		state, err := walkXMLCON(&tree, xmlconState{pendingOxygen: map[string]string{}}, rec)
		require.NoError(t, err)
		assert.True(t, state.oxygenSensorPresent)
		assert.Equal(t, "3", state.pendingOxygen["CC_oxygen_signal_slope"])
	})
}

func TestReadSeacat(t *testing.T) {
	t.Run("legacy key value file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "SBE16plus_1234.cal", `* Sea-Bird SBE16plus calibration
INSTRUMENT_TYPE=SEACATPLUS
SERIALNO=1234
CCALDATE=01-Jan-20
TA0=1.23e-3
BOGUSKEY=9.9
`)

		rec := NewRecord()
		require.NoError(t, NewCTDParser(nil).ReadCal(path, rec))

		assert.Equal(t, "16-1234", rec.Serial)
		assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), rec.Date)
		assert.Equal(t, map[string]string{"CC_a0": "1.23e-3"}, rec.Coefficients)
	})

	t.Run("serial before instrument type keeps bare serial", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "swapped.cal", `SERIALNO=1234
INSTRUMENT_TYPE=SEACATPLUS
`)

		rec := NewRecord()
		require.NoError(t, NewCTDParser(nil).ReadCal(path, rec))
		assert.Equal(t, "1234", rec.Serial, "ordering violation must not fabricate a prefix")
	})

	t.Run("lines without key value shape are skipped", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "noise.cal", `just a header line
A=B=C
TA1=0.5
`)

		rec := NewRecord()
		require.NoError(t, NewCTDParser(nil).ReadCal(path, rec))
		assert.Equal(t, map[string]string{"CC_a1": "0.5"}, rec.Coefficients)
	})
}
