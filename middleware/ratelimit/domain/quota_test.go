package domain

import (
	"testing"
	"time"
)

func TestQuota_NamedPresets(t *testing.T) {
	cases := []struct {
		name string
		want Quota
	}{
		{ConfigAuth, Quota{MaxRequests: 5, Window: time.Minute}},
		{ConfigAdmin, Quota{MaxRequests: 10, Window: time.Minute}},
		{ConfigDefault, Quota{MaxRequests: 30, Window: time.Minute}},
		{ConfigReadOnly, Quota{MaxRequests: 100, Window: time.Minute}},
		{ConfigStrict, Quota{MaxRequests: 3, Window: time.Minute}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, ok := QuotaByName(tc.name)
			if !ok {
				t.Fatalf("expected preset %q to exist", tc.name)
			}
			if q != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, q)
			}
			if err := q.Validate(); err != nil {
				t.Fatalf("expected preset %q to be valid, got %v", tc.name, err)
			}
		})
	}
}

func TestQuotaByName_UnknownName(t *testing.T) {
	if _, ok := QuotaByName("no-such-config"); ok {
		t.Fatalf("expected unknown name to report !ok")
	}
}

func TestQuota_Validate(t *testing.T) {
	if err := (Quota{MaxRequests: 0, Window: time.Minute}).Validate(); err == nil {
		t.Fatalf("expected error for zero max requests")
	}
	if err := (Quota{MaxRequests: 5, Window: 500 * time.Millisecond}).Validate(); err == nil {
		t.Fatalf("expected error for sub-second window")
	}
	if err := (Quota{MaxRequests: 1, Window: time.Second}).Validate(); err != nil {
		t.Fatalf("expected minimal quota to be valid, got %v", err)
	}
}

func TestQuota_PerTokenInterval(t *testing.T) {
	q := Quota{MaxRequests: 30, Window: time.Minute}
	if got := q.PerTokenInterval(); got != 2*time.Second {
		t.Fatalf("expected one token every 2s, got %s", got)
	}
}
