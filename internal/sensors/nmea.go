package sensors

import (
	"fmt"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

// TypeACCL is the proprietary sentence emitted by serial accelerometer
// boards: $PACCL,<x>,<y>,<z>*CS with values in g.
const TypeACCL = "ACCL"

// ACCL is a parsed $PACCL sentence.
type ACCL struct {
	nmea.BaseSentence
	X float64
	Y float64
	Z float64
}

func newACCL(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	p.AssertType(TypeACCL)
	m := ACCL{
		BaseSentence: s,
		X:            p.Float64(0, "x"),
		Y:            p.Float64(1, "y"),
		Z:            p.Float64(2, "z"),
	}
	return m, p.Err()
}

// NewSentenceParser returns an NMEA parser that understands $PACCL.
func NewSentenceParser() *nmea.SentenceParser {
	return &nmea.SentenceParser{
		CustomParsers: map[string]nmea.ParserFunc{
			TypeACCL: newACCL,
		},
	}
}

// ParseAccelSentence parses one line. ok is false for valid sentences of
// other types, which serial boards may interleave.
func ParseAccelSentence(p *nmea.SentenceParser, line string) (v imu.Vector3D, ok bool, err error) {
	sentence, err := p.Parse(line)
	if err != nil {
		return imu.Vector3D{}, false, fmt.Errorf("nmea parse: %w", err)
	}
	m, isAccel := sentence.(ACCL)
	if !isAccel {
		return imu.Vector3D{}, false, nil
	}
	return imu.New(m.X, m.Y, m.Z), true, nil
}
