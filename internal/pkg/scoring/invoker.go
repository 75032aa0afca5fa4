package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"dermacare/internal/pkg/logger"
)

// ProductRecommendation é a saída JSON esperada do processo de scoring.
type ProductRecommendation struct {
	RecommendedProduct string `json:"recommended_product"`
}

// ProcessError indica que o processo de scoring terminou com status diferente
// de zero (ou foi morto pelo timeout). Carrega o exit code e o stderr capturado.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("processo de scoring falhou com código %d: %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// OutputError indica que o processo terminou com sucesso mas o stdout não é o
// JSON esperado (ou não contém recommended_product).
type OutputError struct {
	Output string
	Err    error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("saída do processo de scoring não pôde ser interpretada: %q", e.Output)
}

func (e *OutputError) Unwrap() error { return e.Err }

// Invoker define o contrato de invocação do processo externo de scoring.
type Invoker interface {
	GetRecommendation(ctx context.Context, profile map[string]string) (ProductRecommendation, error)
}

// ProcessInvoker implementa Invoker executando o script configurado
// (e.g., `python3 ai_model.py '<json>'`). A chamada é bloqueante, limitada
// pelo timeout configurado e pelo contexto da requisição — o cancelamento do
// contexto mata o processo. Nenhum retry é feito aqui: falha de scoring é
// devolvida ao cliente como erro de servidor.
type ProcessInvoker struct {
	command    string
	scriptPath string
	timeout    time.Duration
	logger     logger.Logger
}

// NewProcessInvoker cria o invocador do processo de scoring.
func NewProcessInvoker(command, scriptPath string, timeout time.Duration, log logger.Logger) *ProcessInvoker {
	return &ProcessInvoker{
		command:    command,
		scriptPath: scriptPath,
		timeout:    timeout,
		logger:     log,
	}
}

// GetRecommendation serializa o perfil para JSON, executa o processo e
// interpreta o stdout. Sucesso = exit 0 + JSON com recommended_product.
func (p *ProcessInvoker) GetRecommendation(ctx context.Context, profile map[string]string) (ProductRecommendation, error) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return ProductRecommendation{}, &OutputError{Output: "", Err: fmt.Errorf("falha ao serializar perfil: %w", err)}
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctxTimeout, p.command, p.scriptPath, string(payload))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.logger.Debug("Invocando processo de scoring.", map[string]interface{}{
		"command": p.command,
		"script":  p.scriptPath,
	})

	err = cmd.Run()
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		stderrStr := stderr.String()
		if ctxTimeout.Err() == context.DeadlineExceeded {
			stderrStr = fmt.Sprintf("timeout de %s excedido", p.timeout)
		}

		p.logger.Error("Processo de scoring falhou.", err)
		return ProductRecommendation{}, &ProcessError{ExitCode: exitCode, Stderr: stderrStr, Err: err}
	}

	var rec ProductRecommendation
	if err := json.Unmarshal(stdout.Bytes(), &rec); err != nil {
		p.logger.Error("Saída do processo de scoring não é JSON válido.", err)
		return ProductRecommendation{}, &OutputError{Output: stdout.String(), Err: err}
	}

	if rec.RecommendedProduct == "" {
		return ProductRecommendation{}, &OutputError{Output: stdout.String()}
	}

	p.logger.Info("Processo de scoring concluído com sucesso.", map[string]interface{}{
		"recommended_product": rec.RecommendedProduct,
	})
	return rec, nil
}
