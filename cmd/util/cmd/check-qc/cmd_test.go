package checkqc

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/onflow/certstore/consensus/qc"
	"github.com/onflow/certstore/module/signature/bls"
	"github.com/onflow/certstore/utils/unittest"
)

// certificateFixture returns the encoded params and a QC signed by the validators
// with stakes 5 and 7 out of {3, 5, 7}.
func certificateFixture(t *testing.T, msg qc.Message) (rawParams []byte, rawQC []byte, signers [][]byte) {
	rng := unittest.GetPRG(t)
	table, sks := unittest.StakeTableFixture(t, rng, 3, 5, 7)
	params, err := qc.NewParams(table, bls.DefaultDST)
	require.NoError(t, err)

	verifier := qc.NewVerifier(bls.NewScheme())
	sigs := make([]qc.Signature, 0, 2)
	for _, sk := range sks[1:] {
		sig, err := verifier.Sign(bls.DefaultDST, sk, msg, nil)
		require.NoError(t, err)
		sigs = append(sigs, sig)
	}
	cert, err := verifier.Assemble(params, qc.SignerBitmapFromBools(false, true, true), sigs)
	require.NoError(t, err)

	rawParams, err = qc.EncodeParams(params)
	require.NoError(t, err)
	rawQC, err = qc.EncodeCertificate(cert)
	require.NoError(t, err)
	return rawParams, rawQC, [][]byte{table[1].VerificationKey, table[2].VerificationKey}
}

func TestCheckQC(t *testing.T) {
	var msg qc.Message
	copy(msg[:], unittest.RandomBytes(qc.MessageLength))
	rawParams, rawQC, signers := certificateFixture(t, msg)

	report, err := CheckQC(qc.NewVerifier(bls.NewScheme()), rawParams, rawQC, msg)
	require.NoError(t, err)
	assert.Equal(t, "12", report.Weight)
	assert.Equal(t, "11", report.Threshold)
	assert.Equal(t, []string{hex.EncodeToString(signers[0]), hex.EncodeToString(signers[1])}, report.Signers)

	t.Run("wrong message", func(t *testing.T) {
		other := msg
		other[0] ^= 0xff
		_, err := CheckQC(qc.NewVerifier(bls.NewScheme()), rawParams, rawQC, other)
		require.Error(t, err)
		assert.True(t, qc.IsVerificationError(err))
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := CheckQC(qc.NewVerifier(bls.NewScheme()), []byte{0x01}, rawQC, msg)
		require.Error(t, err)
		_, err = CheckQC(qc.NewVerifier(bls.NewScheme()), rawParams, []byte{0x01}, msg)
		require.Error(t, err)
	})
}

func TestParseMessage(t *testing.T) {
	raw := unittest.RandomBytes(qc.MessageLength)
	msg, err := ParseMessage(hex.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, msg[:])

	_, err = ParseMessage("abcd")
	require.Error(t, err)
	_, err = ParseMessage("not hex")
	require.Error(t, err)
}

func TestCommand(t *testing.T) {
	var msg qc.Message
	copy(msg[:], unittest.RandomBytes(qc.MessageLength))
	rawParams, rawQC, _ := certificateFixture(t, msg)

	unittest.RunWithTempDir(t, func(dir string) {
		paramsFile := filepath.Join(dir, "params.cbor")
		qcFile := filepath.Join(dir, "qc.cbor")
		require.NoError(t, os.WriteFile(paramsFile, rawParams, 0644))
		require.NoError(t, os.WriteFile(qcFile, rawQC, 0644))

		var out bytes.Buffer
		Cmd.SetOut(&out)
		Cmd.SetArgs([]string{"--qc", qcFile, "--params", paramsFile, "--message", hex.EncodeToString(msg[:])})
		require.NoError(t, Cmd.Execute())

		var report Report
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))
		assert.Equal(t, "12", report.Weight)
		assert.Len(t, report.Signers, 2)
	})
}
