package inference

import (
	"os"

	"digitpad/internal/config"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

// onnxruntime environment hooks, replaced in tests
var (
	envInitialized = ort.IsInitialized
	initEnv        = ort.InitializeEnvironment
	destroyEnv     = ort.DestroyEnvironment
)

type ONNXModel struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// Open loads the configured model, or returns Unloaded with the cause.
func Open(cfg config.ModelConfig, inputSize int) Model {
	m, err := LoadONNX(cfg, inputSize)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Path).Msg("model unavailable")
		return Unloaded{Reason: err}
	}
	return m
}

// LoadONNX creates a session with an input of shape (1, size, size, 1) and an
// output of shape (1, classes).
func LoadONNX(cfg config.ModelConfig, inputSize int) (*ONNXModel, error) {
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, errors.Wrapf(ErrModelUnavailable, "stat %s: %v", cfg.Path, err)
	}

	ownsEnv := false
	if !envInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := initEnv(); err != nil {
			return nil, errors.Wrapf(ErrModelUnavailable, "initialize onnxruntime: %v", err)
		}
		ownsEnv = true
	}

	// an Unloaded model never closes anything, so tear down here
	release := func() {
		if ownsEnv {
			destroyEnv()
		}
	}

	inputShape := ort.NewShape(1, int64(inputSize), int64(inputSize), 1)
	outputShape := ort.NewShape(1, int64(cfg.Classes))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		release()
		return nil, errors.Wrap(err, "create input tensor")
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		release()
		return nil, errors.Wrap(err, "create output tensor")
	}

	session, err := ort.NewAdvancedSession(cfg.Path,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		release()
		return nil, errors.Wrapf(ErrModelUnavailable, "create session: %v", err)
	}

	log.Info().Str("path", cfg.Path).Int("classes", cfg.Classes).Msg("model loaded")

	return &ONNXModel{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (m *ONNXModel) Run(input []float32) ([]float32, error) {
	dst := m.inputTensor.GetData()
	if len(input) != len(dst) {
		return nil, errors.Wrapf(ErrBadInput, "got %d values, want %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := m.session.Run(); err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}

	// the output tensor is reused by the next run
	out := make([]float32, len(m.outputTensor.GetData()))
	copy(out, m.outputTensor.GetData())

	return out, nil
}

func (m *ONNXModel) Close() error {
	if m.session != nil {
		if err := m.session.Destroy(); err != nil {
			return err
		}
	}
	if m.inputTensor != nil {
		m.inputTensor.Destroy()
	}
	if m.outputTensor != nil {
		m.outputTensor.Destroy()
	}
	return destroyEnv()
}
