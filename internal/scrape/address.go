package scrape

import (
	"context"
	"time"

	"github.com/cenozavr/okey-delivery-scraper/internal/driver"
)

var (
	consentButton = driver.Locator{Strategy: driver.ByXPath, Target: "//button[contains(text(),'Принять')]"}
	deliverySlot  = driver.Locator{Strategy: driver.ByClickableID, Target: "availableReceiptTimeslot"}
	addressInput  = driver.Locator{Strategy: driver.ByCSSSelector, Target: "#addressSelectionQuery"}
	addressSave   = driver.Locator{Strategy: driver.ByClickableID, Target: "addressSelectionButton"}
)

// SelectAddress walks the one-time address flow: dismiss the consent dialog,
// open the delivery panel, type and confirm the address, save. Every step is
// individually contained; a transient failure leaves the session in place and
// the flow reports confirmed=false instead of guessing. Only faults outside
// the transient set abort the run.
func (s *Scraper) SelectAddress(ctx context.Context) (bool, error) {
	if err := s.navigateRoot(ctx); err != nil {
		return false, err
	}

	dismissed, err := s.clickFound(ctx, "address.consent", consentButton, s.cfg.FindTimeout)
	if err != nil {
		return false, err
	}
	if dismissed {
		s.logger.Info("consent dismissed")
	}

	trigger, err := Attempt(s.logger, s.metrics, "address.open", func() (driver.Element, error) {
		return s.session.Find(ctx, deliverySlot, s.cfg.AddressTimeout)
	})
	if err != nil {
		return false, err
	}
	if trigger == nil {
		return false, nil
	}
	opened, err := Attempt(s.logger, s.metrics, "address.open", func() (bool, error) {
		if err := trigger.Hover(); err != nil {
			return false, err
		}
		// The panel renders off the hover with no observable ready signal;
		// this delay is a known fragility, not a correctness guarantee.
		if err := sleep(ctx, s.cfg.SettleTimeout); err != nil {
			return false, err
		}
		if err := trigger.Click(); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil || !opened {
		return false, err
	}
	s.logger.Info("delivery panel opened")

	input, err := Attempt(s.logger, s.metrics, "address.type", func() (driver.Element, error) {
		return s.session.Find(ctx, addressInput, s.cfg.FindTimeout)
	})
	if err != nil {
		return false, err
	}
	if input == nil {
		return false, nil
	}
	typed, err := Attempt(s.logger, s.metrics, "address.type", func() (bool, error) {
		if err := input.TypeText(s.cfg.Address); err != nil {
			return false, err
		}
		// First Enter accepts the autocomplete suggestion, second submits.
		if err := input.Press("Enter"); err != nil {
			return false, err
		}
		if err := input.Press("Enter"); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil || !typed {
		return false, err
	}

	saved, err := s.clickFound(ctx, "address.save", addressSave, s.cfg.AddressTimeout)
	if err != nil {
		return false, err
	}
	if !saved {
		return false, nil
	}

	// Post-condition: the address form detaching is the only observable
	// signal that the site accepted the address.
	confirmed, err := Attempt(s.logger, s.metrics, "address.confirm", func() (bool, error) {
		if err := s.session.WaitGone(ctx, addressInput, s.cfg.SettleTimeout); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if confirmed {
		s.logger.Info("address saved", "address", s.cfg.Address)
	}
	return confirmed, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
