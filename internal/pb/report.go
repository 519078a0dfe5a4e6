// Package pb provides the optional --format=pb protobuf encoding of audit
// and report output (spec §6's `-o`/`--format` surface), using
// github.com/gogo/protobuf's reflection-based Marshal over struct-tagged
// Go types rather than a generated .pb.go file.
package pb

import (
	"github.com/gogo/protobuf/proto"
)

// Point is one wire point in a PB-encoded report series.
type Point struct {
	CommitHash string  `protobuf:"bytes,1,opt,name=commit_hash" json:"commit_hash,omitempty"`
	Time       int64   `protobuf:"varint,2,opt,name=time" json:"time,omitempty"`
	Value      float64 `protobuf:"fixed64,3,opt,name=value" json:"value,omitempty"`
	Epoch      uint32  `protobuf:"varint,4,opt,name=epoch" json:"epoch,omitempty"`
}

func (p *Point) Reset()         { *p = Point{} }
func (p *Point) String() string { return proto.CompactTextString(p) }
func (*Point) ProtoMessage()    {}

// Series is one named measurement's point sequence.
type Series struct {
	Name   string   `protobuf:"bytes,1,opt,name=name" json:"name,omitempty"`
	Points []*Point `protobuf:"bytes,2,rep,name=points" json:"points,omitempty"`
}

func (s *Series) Reset()         { *s = Series{} }
func (s *Series) String() string { return proto.CompactTextString(s) }
func (*Series) ProtoMessage()    {}

// AuditResult mirrors internal/audit.Result for the wire format.
type AuditResult struct {
	Verdict              string    `protobuf:"bytes,1,opt,name=verdict" json:"verdict,omitempty"`
	HeadValue            float64   `protobuf:"fixed64,2,opt,name=head_value" json:"head_value,omitempty"`
	Center               float64   `protobuf:"fixed64,3,opt,name=center" json:"center,omitempty"`
	Dispersion           float64   `protobuf:"fixed64,4,opt,name=dispersion" json:"dispersion,omitempty"`
	Z                    float64   `protobuf:"fixed64,5,opt,name=z" json:"z,omitempty"`
	RelativeDeviationPct float64   `protobuf:"fixed64,6,opt,name=relative_deviation_pct" json:"relative_deviation_pct,omitempty"`
	DispersionMethod     string    `protobuf:"bytes,7,opt,name=dispersion_method" json:"dispersion_method,omitempty"`
	TailSize             int32     `protobuf:"varint,8,opt,name=tail_size" json:"tail_size,omitempty"`
	TailMedian           float64   `protobuf:"fixed64,9,opt,name=tail_median" json:"tail_median,omitempty"`
	TailMin              float64   `protobuf:"fixed64,10,opt,name=tail_min" json:"tail_min,omitempty"`
	TailMax              float64   `protobuf:"fixed64,11,opt,name=tail_max" json:"tail_max,omitempty"`
	Sparkline            []float64 `protobuf:"fixed64,12,rep,name=sparkline" json:"sparkline,omitempty"`
}

func (a *AuditResult) Reset()         { *a = AuditResult{} }
func (a *AuditResult) String() string { return proto.CompactTextString(a) }
func (*AuditResult) ProtoMessage()    {}

// Report is the top-level message for `report --format=pb`.
type Report struct {
	Series []*Series `protobuf:"bytes,1,rep,name=series" json:"series,omitempty"`
}

func (r *Report) Reset()         { *r = Report{} }
func (r *Report) String() string { return proto.CompactTextString(r) }
func (*Report) ProtoMessage()    {}

// MarshalReport encodes a Report to its protobuf wire form.
func MarshalReport(r *Report) ([]byte, error) { return proto.Marshal(r) }

// UnmarshalReport decodes a Report from its protobuf wire form.
func UnmarshalReport(data []byte) (*Report, error) {
	var r Report
	if err := proto.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// MarshalAuditResult encodes an AuditResult to its protobuf wire form.
func MarshalAuditResult(a *AuditResult) ([]byte, error) { return proto.Marshal(a) }

// UnmarshalAuditResult decodes an AuditResult from its protobuf wire form.
func UnmarshalAuditResult(data []byte) (*AuditResult, error) {
	var a AuditResult
	if err := proto.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
