package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ivSize é o tamanho do vetor de inicialização do AES-CTR (um bloco AES).
const ivSize = aes.BlockSize

// Error representa uma falha de criptografia/descriptografia. Para o registro
// afetado o erro é fatal: sem o IV correto e a chave do processo não há como
// recuperar o texto em claro.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("erro de criptografia: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("erro de criptografia: %s", e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Codec define o contrato de cifragem simétrica das recomendações.
type Codec interface {
	Encrypt(plaintext string) (cipherHex string, ivHex string, err error)
	Decrypt(cipherHex string, ivHex string) (string, error)
}

// AESCodec implementa Codec usando AES-256 em modo CTR, com uma chave fixa de
// processo e um IV aleatório novo a cada chamada de Encrypt. IVs nunca se
// repetem entre registros; o mesmo IV armazenado reproduz byte a byte o texto.
type AESCodec struct {
	key []byte
}

// NewAESCodec cria o codec. A chave deve ter exatamente 32 bytes (AES-256).
func NewAESCodec(key string) (*AESCodec, error) {
	if len(key) != 32 {
		return nil, &Error{Msg: fmt.Sprintf("chave deve ter 32 bytes, recebeu %d", len(key))}
	}
	return &AESCodec{key: []byte(key)}, nil
}

// Encrypt cifra o texto e retorna o ciphertext e o IV, ambos em hexadecimal.
func (c *AESCodec) Encrypt(plaintext string) (string, string, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", "", &Error{Msg: "falha ao gerar IV aleatório", Err: err}
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", "", &Error{Msg: "falha ao inicializar cifra AES", Err: err}
	}

	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, []byte(plaintext))

	return hex.EncodeToString(ciphertext), hex.EncodeToString(iv), nil
}

// Decrypt reverte a cifragem a partir do ciphertext e do IV armazenados.
func (c *AESCodec) Decrypt(cipherHex string, ivHex string) (string, error) {
	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", &Error{Msg: "ciphertext não é hexadecimal válido", Err: err}
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", &Error{Msg: "IV não é hexadecimal válido", Err: err}
	}
	if len(iv) != ivSize {
		return "", &Error{Msg: fmt.Sprintf("IV deve ter %d bytes, recebeu %d", ivSize, len(iv))}
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", &Error{Msg: "falha ao inicializar cifra AES", Err: err}
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(plaintext, ciphertext)

	return string(plaintext), nil
}
