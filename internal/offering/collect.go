package offering

import (
	"context"

	"github.com/mobiclear/mobiclear/internal/messaging"
	"github.com/mobiclear/mobiclear/internal/model"
)

// Collect queries each provider in turn for offers fulfilling the request
// and aggregates the answers. Providers that cannot be reached fail the
// whole collection; an empty aggregate is a valid outcome.
func Collect(ctx context.Context, transport messaging.Transport, from model.Party, providers []model.Party, request model.Commitment) ([]model.Offer, error) {
	var offers []model.Offer
	for _, provider := range providers {
		got, err := collectFrom(ctx, transport, from, provider, request)
		if err != nil {
			return nil, err
		}
		offers = append(offers, got...)
	}
	return offers, nil
}

func collectFrom(ctx context.Context, transport messaging.Transport, from, provider model.Party, request model.Commitment) ([]model.Offer, error) {
	s, err := transport.Open(ctx, from, provider)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := s.Send(CollectRequest{Request: request}); err != nil {
		return nil, err
	}
	resp, err := messaging.Expect[CollectResponse](ctx, s)
	if err != nil {
		return nil, err
	}
	return resp.Offers, nil
}
