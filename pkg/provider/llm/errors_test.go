package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/studyscroll/studyscroll/pkg/provider/llm"
)

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want error
	}{
		{401, llm.ErrAuthFailed},
		{403, llm.ErrAuthFailed},
		{429, llm.ErrRateLimited},
		{408, llm.ErrTimeout},
		{504, llm.ErrTimeout},
		{500, llm.ErrUnavailable},
		{503, llm.ErrUnavailable},
		{418, llm.ErrUnavailable},
	}
	for _, tt := range tests {
		if got := llm.ClassifyStatus(tt.code); !errors.Is(got, tt.want) {
			t.Errorf("ClassifyStatus(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestClassifyContextErr(t *testing.T) {
	t.Parallel()

	if got := llm.ClassifyContextErr(context.DeadlineExceeded); !errors.Is(got, llm.ErrTimeout) {
		t.Errorf("ClassifyContextErr(DeadlineExceeded) = %v, want ErrTimeout", got)
	}
	// Cancellation is not a provider fault and stays unclassified.
	if got := llm.ClassifyContextErr(context.Canceled); got != nil {
		t.Errorf("ClassifyContextErr(Canceled) = %v, want nil", got)
	}
	if got := llm.ClassifyContextErr(errors.New("other")); got != nil {
		t.Errorf("ClassifyContextErr(other) = %v, want nil", got)
	}
}
