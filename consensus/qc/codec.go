package qc

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("could not initialize cbor encoder: %s", err.Error()))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("could not initialize cbor decoder: %s", err.Error()))
	}
}

// EncodeCertificate returns the deterministic CBOR encoding of a QC.
func EncodeCertificate(qc *QuorumCertificate) ([]byte, error) {
	b, err := encMode.Marshal(qc)
	if err != nil {
		return nil, fmt.Errorf("could not encode quorum certificate: %w", err)
	}
	return b, nil
}

// DecodeCertificate decodes a QC. The decoded certificate is not checked in any way,
// callers must run Check before trusting it.
func DecodeCertificate(b []byte) (*QuorumCertificate, error) {
	var qc QuorumCertificate
	err := decMode.Unmarshal(b, &qc)
	if err != nil {
		return nil, fmt.Errorf("could not decode quorum certificate: %w", err)
	}
	return &qc, nil
}

// EncodeParams returns the deterministic CBOR encoding of QC parameters.
func EncodeParams(params Params) ([]byte, error) {
	b, err := encMode.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("could not encode qc params: %w", err)
	}
	return b, nil
}

// DecodeParams decodes QC parameters.
func DecodeParams(b []byte) (Params, error) {
	var params Params
	err := decMode.Unmarshal(b, &params)
	if err != nil {
		return Params{}, fmt.Errorf("could not decode qc params: %w", err)
	}
	return params, nil
}
