package service

import (
	"time"

	"github.com/smallbiznis/cardsynth/internal/generator/domain"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/internal/random"
)

const (
	minAge = 21
	maxAge = 65 // exclusive

	joinWindowDays = 1500
	issueDelayDays = 60
)

var segmentWeights = func() []float64 {
	w := make([]float64, len(portfolio.SegmentProfiles))
	for i, p := range portfolio.SegmentProfiles {
		w[i] = p.Weight
	}
	return w
}()

// GenerateCustomers draws p.Customers customers with sequential ids from 1
// and nulls the occupation on a uniform sample of rows.
func GenerateCustomers(src *random.Source, p domain.Params) []portfolio.Customer {
	start := truncateDay(p.StartDate)
	customers := make([]portfolio.Customer, 0, p.Customers)

	for id := 1; id <= p.Customers; id++ {
		profile := portfolio.SegmentProfiles[src.Weighted(segmentWeights)]
		country := portfolio.Countries[src.Pick(len(portfolio.Countries))]
		city := country.Cities[src.Pick(len(country.Cities))]
		age := src.IntN(minAge, maxAge)
		occupation := portfolio.Occupations[src.Pick(len(portfolio.Occupations))]
		joinDate := start.AddDate(0, 0, -src.IntInclusive(0, joinWindowDays))
		score := src.IntN(profile.CreditScoreMin, profile.CreditScoreMax)

		customers = append(customers, portfolio.Customer{
			ID:          int64(id),
			Age:         age,
			IncomeBand:  profile.IncomeBand,
			Occupation:  &occupation,
			City:        city,
			Country:     country.Name,
			Segment:     profile.Segment,
			JoinDate:    joinDate,
			CreditScore: score,
		})
	}

	for _, i := range src.Sample(len(customers), p.OccupationNullFraction) {
		customers[i].Occupation = nil
	}
	return customers
}

// GenerateCards issues exactly one card per customer, in customer order.
func GenerateCards(src *random.Source, customers []portfolio.Customer) []portfolio.Card {
	cards := make([]portfolio.Card, 0, len(customers))
	for _, cust := range customers {
		profile, ok := portfolio.ProfileFor(cust.Segment)
		if !ok {
			continue
		}
		cardType := profile.CardTypes[src.Pick(len(profile.CardTypes))]
		product, _ := portfolio.ProductFor(cardType)

		cards = append(cards, portfolio.Card{
			ID:                int64(len(cards) + 1),
			CustomerID:        cust.ID,
			CardType:          cardType,
			CreditLimit:       src.IntN(product.CreditLimitMin, product.CreditLimitMax),
			IssueDate:         cust.JoinDate.AddDate(0, 0, src.IntInclusive(0, issueDelayDays)),
			AnnualFee:         product.AnnualFee,
			RewardProgramType: portfolio.RewardPrograms[src.Pick(len(portfolio.RewardPrograms))],
		})
	}
	return cards
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
