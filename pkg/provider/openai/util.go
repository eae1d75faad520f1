package openai

import (
	"errors"

	"github.com/adrianliechti/narrator/pkg/provider"

	"github.com/openai/openai-go/v3"
)

func convertError(err error) error {
	var apierr *openai.Error

	if errors.As(err, &apierr) {
		var retryAfter string

		if apierr.Response != nil {
			retryAfter = apierr.Response.Header.Get("Retry-After")
		}

		perr := provider.Classify(apierr.StatusCode, apierr.Message, provider.ParseRetryAfter(retryAfter))
		perr.Err = err

		return perr
	}

	return err
}
