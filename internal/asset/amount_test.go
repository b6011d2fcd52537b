package asset_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/sizing-bot/internal/apperror"
	"github.com/fd1az/sizing-bot/internal/asset"
)

func TestAmount_Basic(t *testing.T) {
	// 1 WETH = 1e18 wei
	one := asset.NewAmount(asset.WETH, big.NewInt(1e18))

	if one.IsZero() {
		t.Error("expected non-zero amount")
	}
	if !one.ToDecimal().Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", one.ToDecimal())
	}
	if one.String() != "1 WETH" {
		t.Errorf("expected '1 WETH', got '%s'", one.String())
	}
}

func TestAmount_SubMayGoNegative(t *testing.T) {
	back := asset.NewAmount(asset.WETH, big.NewInt(99))
	in := asset.NewAmount(asset.WETH, big.NewInt(100))

	profit, err := back.Sub(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profit.Sign() >= 0 {
		t.Errorf("expected a loss, got %s", profit.Raw())
	}
}

func TestAmount_CannotMixTokens(t *testing.T) {
	weth := asset.NewAmount(asset.WETH, big.NewInt(1))
	usdc := asset.NewAmount(asset.USDC, big.NewInt(1))

	if _, err := weth.Add(usdc); !errors.Is(err, asset.ErrTokenMismatch) {
		t.Errorf("expected ErrTokenMismatch, got %v", err)
	}
}

func TestAmount_RawIsACopy(t *testing.T) {
	raw := big.NewInt(5)
	a := asset.NewAmount(asset.DAI, raw)
	raw.SetInt64(7)
	a.Raw().SetInt64(9)

	if a.Raw().Int64() != 5 {
		t.Errorf("amount mutated through alias: %s", a.Raw())
	}
}

func TestParseEther(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0.02", "20000000000000000", false},
		{"10", "10000000000000000000", false},
		{"0.005", "5000000000000000", false},
		{"0.0000000000000000001", "", true},
		{"-1", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := asset.ParseEther(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseEther(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatEther(t *testing.T) {
	wei, _ := new(big.Int).SetString("1234500000000000000", 10)
	if got := asset.FormatEther(wei); got != "1.2345" {
		t.Errorf("FormatEther = %s, want 1.2345", got)
	}
	if got := asset.FormatEther(big.NewInt(-5e15)); got != "-0.005" {
		t.Errorf("FormatEther = %s, want -0.005", got)
	}
}

func TestParseUnits_SixDecimals(t *testing.T) {
	got, err := asset.ParseUnits("1.5", asset.USDC.Decimals())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() != 1_500_000 {
		t.Errorf("ParseUnits = %s, want 1500000", got)
	}
}

func TestRegistry(t *testing.T) {
	r := asset.DefaultRegistry()

	if r.Count() != 17 {
		t.Errorf("Count = %d, want 17", r.Count())
	}

	usdc, ok := r.BySymbol("usdc")
	if !ok || usdc.Decimals() != 6 {
		t.Fatalf("BySymbol(usdc) = %v, %v", usdc, ok)
	}
	if byAddr, ok := r.ByAddress(usdc.Address()); !ok || !byAddr.Equals(usdc) {
		t.Error("ByAddress did not return USDC")
	}

	tokens, err := r.Resolve([]string{"PEPE", "link"})
	if err != nil || len(tokens) != 2 || tokens[1].Symbol() != "LINK" {
		t.Errorf("Resolve = %v, %v", tokens, err)
	}

	_, err = r.Resolve([]string{"USDC", "NOPE"})
	if apperror.GetCode(err) != apperror.CodeTokenNotFound {
		t.Errorf("expected CodeTokenNotFound, got %v", err)
	}

	if err := r.Register(asset.USDC); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	all := r.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Symbol() > all[i].Symbol() {
			t.Fatalf("All not sorted: %s before %s", all[i-1].Symbol(), all[i].Symbol())
		}
	}
}
