package secret

import (
	"context"
	"log"
)

// Chain supplies a program's secret from the keyring when remembered, else
// from the first usable prompter. It satisfies launcher.SecretProvider.
type Chain struct {
	ProgramID string
	Remember  bool
	Store     *Store
	Prompters []Prompter
}

// Secret returns the secret value for the given prompt label.
func (c *Chain) Secret(ctx context.Context, label string) (string, error) {
	if c.Remember && c.Store != nil {
		value, found, err := c.Store.Get(c.ProgramID)
		if err != nil {
			log.Printf("[secret] %v", err)
		} else if found {
			return value, nil
		}
	}

	for _, p := range c.Prompters {
		if !Usable(p) {
			continue
		}
		value, err := p.Prompt(ctx, label)
		if err != nil {
			return "", err
		}
		c.remember(value)
		return value, nil
	}
	return "", ErrNoPrompter
}

func (c *Chain) remember(value string) {
	if !c.Remember || c.Store == nil {
		return
	}
	if err := c.Store.Set(c.ProgramID, value); err != nil {
		log.Printf("[secret] %v", err)
	}
}
