package keys

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kaspanet/cinnabar/domain/netparams"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when a secret is requested while stdin is not a terminal
var ErrNotTerminal = errors.New("stdin is not a terminal")

// ReadSecret reads a line from the terminal without echoing it
func ReadSecret(prompt string) (string, error) {
	stdin := int(syscall.Stdin)
	if !term.IsTerminal(stdin) {
		return "", errors.WithStack(ErrNotTerminal)
	}
	initialTermState, err := term.GetState(stdin)
	if err != nil {
		return "", errors.WithStack(err)
	}

	// Restore the terminal if interrupted while echo is off
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	defer close(done)
	defer signal.Stop(interrupt)
	go func() {
		select {
		case <-interrupt:
			_ = term.Restore(stdin, initialTermState)
			os.Exit(1)
		case <-done:
		}
	}()

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return strings.TrimSpace(string(secret)), nil
}

// PromptKeyPair asks for a hex private key or a mnemonic. A mnemonic is
// followed by a prompt for its password, which may be empty.
func PromptKeyPair(params *netparams.Params, owner string) (*KeyPair, error) {
	secret, err := ReadSecret(fmt.Sprintf("Private key or mnemonic of %s: ", owner))
	if err != nil {
		return nil, err
	}
	if len(strings.Fields(secret)) == 1 {
		return ParsePrivateKey(params, secret)
	}
	password, err := ReadSecret("Mnemonic password (empty for none): ")
	if err != nil {
		return nil, err
	}
	return NewKeyPairFromMnemonic(params, secret, password)
}
