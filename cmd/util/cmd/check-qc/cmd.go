package checkqc

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/onflow/certstore/consensus/qc"
	"github.com/onflow/certstore/module/signature/bls"
	"github.com/onflow/certstore/utils/logging"
)

var (
	flagQCFile     string
	flagParamsFile string
	flagMessage    string
)

var Cmd = &cobra.Command{
	Use:   "check-qc",
	Short: "verify a CBOR encoded quorum certificate against CBOR encoded parameters",
	RunE:  run,
}

func init() {
	Cmd.Flags().StringVar(&flagQCFile, "qc", "", "file with the CBOR encoded quorum certificate")
	_ = Cmd.MarkFlagRequired("qc")

	Cmd.Flags().StringVar(&flagParamsFile, "params", "", "file with the CBOR encoded QC parameters")
	_ = Cmd.MarkFlagRequired("params")

	Cmd.Flags().StringVar(&flagMessage, "message", "", "hex encoded 32 byte message the certificate signs")
	_ = Cmd.MarkFlagRequired("message")
}

// Report is the printed result of a successful check.
type Report struct {
	Weight    string   `yaml:"weight"`
	Threshold string   `yaml:"threshold"`
	Signers   []string `yaml:"signers"`
}

func run(cmd *cobra.Command, _ []string) error {
	rawQC, err := os.ReadFile(flagQCFile)
	if err != nil {
		return fmt.Errorf("could not read qc file: %w", err)
	}
	rawParams, err := os.ReadFile(flagParamsFile)
	if err != nil {
		return fmt.Errorf("could not read params file: %w", err)
	}
	msg, err := ParseMessage(flagMessage)
	if err != nil {
		return err
	}

	report, err := CheckQC(qc.NewVerifier(bls.NewScheme()), rawParams, rawQC, msg)
	if err != nil {
		log.Warn().Err(err).Str("qc", flagQCFile).Msg("quorum certificate rejected")
		return err
	}
	return WriteReport(cmd.OutOrStdout(), report)
}

// ParseMessage decodes a hex encoded QC message.
func ParseMessage(s string) (qc.Message, error) {
	var msg qc.Message
	b, err := hex.DecodeString(s)
	if err != nil {
		return msg, fmt.Errorf("could not decode message: %w", err)
	}
	if len(b) != qc.MessageLength {
		return msg, fmt.Errorf("message must be %d bytes, got %d", qc.MessageLength, len(b))
	}
	copy(msg[:], b)
	return msg, nil
}

// CheckQC decodes the parameters and the certificate, checks the certificate and
// reports its weight and signers.
func CheckQC(verifier *qc.Verifier, rawParams []byte, rawQC []byte, msg qc.Message) (*Report, error) {
	params, err := qc.DecodeParams(rawParams)
	if err != nil {
		return nil, fmt.Errorf("could not decode params: %w", err)
	}
	cert, err := qc.DecodeCertificate(rawQC)
	if err != nil {
		return nil, fmt.Errorf("could not decode qc: %w", err)
	}

	weight, err := verifier.Check(params, msg, cert)
	if err != nil {
		return nil, fmt.Errorf("invalid qc: %w", err)
	}
	signers, err := verifier.Trace(params, msg, cert)
	if err != nil {
		return nil, fmt.Errorf("could not trace qc signers: %w", err)
	}

	report := &Report{
		Weight:    weight.Dec(),
		Threshold: params.Threshold.Dec(),
		Signers:   logging.Keys(signers),
	}
	return report, nil
}

func WriteReport(w io.Writer, report *Report) error {
	out, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("could not encode report: %w", err)
	}
	_, err = w.Write(out)
	return err
}
