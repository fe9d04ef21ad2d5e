package scrape

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenozavr/okey-delivery-scraper/internal/driver"
	"github.com/cenozavr/okey-delivery-scraper/internal/models"
)

var (
	productCards = driver.Locator{Strategy: driver.ByClassName, Target: "product.ok-theme"}
	nextArrow    = driver.Locator{Strategy: driver.ByClassName, Target: "right_arrow"}
)

// CollectProducts walks every configured category in order and pages through
// each one, appending extracted records in deterministic order: categories as
// configured, pages ascending, cards in DOM order. A fault on one card skips
// that card only; a fault on one category moves on to the next.
func (s *Scraper) CollectProducts(ctx context.Context) ([]*models.ProductRecord, error) {
	var records []*models.ProductRecord

	for _, category := range s.cfg.Categories {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		log := s.logger.With("category", category)

		// Fresh state per category.
		if err := s.navigateRoot(ctx); err != nil {
			return records, err
		}

		entry := driver.Locator{
			Strategy: driver.ByXPath,
			Target:   fmt.Sprintf("//div[contains(text(),'%s')]", category),
		}
		clicked, err := s.clickFound(ctx, "category.open", entry, s.cfg.FindTimeout)
		if err != nil {
			return records, err
		}
		if !clicked {
			continue
		}
		log.Info("category opened")

		for page := 1; page <= s.cfg.Pages; page++ {
			pageRecords, err := s.extractPage(ctx, log.With("page", page))
			if err != nil {
				return records, err
			}
			records = append(records, pageRecords...)
			s.metrics.IncPages()

			advanced, err := Attempt(log, s.metrics, "category.next", func() (bool, error) {
				return s.nextPage(ctx)
			})
			if err != nil {
				return records, err
			}
			if !advanced {
				log.Info("category exhausted", "pages", page)
				break
			}
			log.Debug("pagination advanced")

			if err := sleep(ctx, s.cfg.PageDelay); err != nil {
				return records, err
			}
		}
	}

	return records, nil
}

// extractPage collects all product cards on the current page and extracts
// each one in isolation.
func (s *Scraper) extractPage(ctx context.Context, log *slog.Logger) ([]*models.ProductRecord, error) {
	cards, err := Attempt(log, s.metrics, "page.cards", func() ([]driver.Element, error) {
		return s.session.FindAll(ctx, productCards, s.cfg.FindTimeout)
	})
	if err != nil {
		return nil, err
	}
	log.Info("cards found", "count", len(cards))

	var records []*models.ProductRecord
	for i, card := range cards {
		record, err := Attempt(log, s.metrics, fmt.Sprintf("page.card[%d]", i), func() (*models.ProductRecord, error) {
			return s.extractCard(card)
		})
		if err != nil {
			return records, err
		}
		if record == nil {
			continue
		}
		records = append(records, record)
		s.metrics.IncRecords()
	}
	return records, nil
}

// extractCard fetches the card's fragment in a single driver call and parses
// the fixed field set offline.
func (s *Scraper) extractCard(card driver.Element) (*models.ProductRecord, error) {
	fragment, err := card.OuterHTML()
	if err != nil {
		return nil, err
	}
	return s.parser.ParseCard(fragment)
}

// nextPage tries to advance to the next catalog page. A missing or inert
// arrow is the expected terminal condition for a category and reports
// advanced=false without an error; everything else propagates for
// classification.
func (s *Scraper) nextPage(ctx context.Context) (bool, error) {
	arrows, err := s.session.FindAll(ctx, nextArrow, s.cfg.FindTimeout)
	if err != nil {
		if terminalPagination(err) {
			return false, nil
		}
		return false, err
	}
	if len(arrows) == 0 {
		return false, nil
	}
	if err := arrows[0].Click(); err != nil {
		if terminalPagination(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func terminalPagination(err error) bool {
	switch driver.KindOf(err) {
	case driver.KindNotInteractable, driver.KindElementNotFound, driver.KindWaitTimeout:
		return true
	}
	return false
}
