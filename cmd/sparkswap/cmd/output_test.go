package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"
)

func TestBuildOrderRequest(t *testing.T) {
	tests := []struct {
		name        string
		side        string
		amount      string
		price       string
		market      string
		tif         string
		wantErr     bool
		wantMarket  bool
		wantLimit   string
		wantTIF     string
		wantMarketN string
	}{
		{"limit buy", sideBid, "10", "100", "BTC/LTC", "GTC", false, false, "100", "GTC", "BTC/LTC"},
		{"market sell", sideAsk, "0.5", "", "btc/ltc", "ioc", false, true, "", "IOC", "BTC/LTC"},
		{"bad amount", sideBid, "ten", "", "BTC/LTC", "GTC", true, false, "", "", ""},
		{"bad price", sideBid, "10", "abc", "BTC/LTC", "GTC", true, false, "", "", ""},
		{"bad market", sideBid, "10", "", "BTC", "GTC", true, false, "", "", ""},
		{"bad time in force", sideBid, "10", "", "BTC/LTC", "GTD", true, false, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := buildOrderRequest(tt.side, tt.amount, tt.price, tt.market, tt.tif)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildOrderRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			f := req.GetFields()
			if f["side"].GetStringValue() != tt.side {
				t.Errorf("side = %v, want %v", f["side"].GetStringValue(), tt.side)
			}
			if f["amount"].GetStringValue() != tt.amount {
				t.Errorf("amount = %v, want %v", f["amount"].GetStringValue(), tt.amount)
			}
			if f["market"].GetStringValue() != tt.wantMarketN {
				t.Errorf("market = %v, want %v", f["market"].GetStringValue(), tt.wantMarketN)
			}
			if f["timeInForce"].GetStringValue() != tt.wantTIF {
				t.Errorf("timeInForce = %v, want %v", f["timeInForce"].GetStringValue(), tt.wantTIF)
			}
			if f["isMarketOrder"].GetBoolValue() != tt.wantMarket {
				t.Errorf("isMarketOrder = %v, want %v", f["isMarketOrder"].GetBoolValue(), tt.wantMarket)
			}
			if _, hasLimit := f["limitPrice"]; hasLimit == tt.wantMarket {
				t.Errorf("limitPrice present = %v for market order = %v", hasLimit, tt.wantMarket)
			}
			if f["limitPrice"].GetStringValue() != tt.wantLimit {
				t.Errorf("limitPrice = %v, want %v", f["limitPrice"].GetStringValue(), tt.wantLimit)
			}
		})
	}
}

func TestParseRequest(t *testing.T) {
	req, err := parseRequest(`{"market":"BTC/LTC","limit":5}`)
	if err != nil {
		t.Fatalf("parseRequest() error = %v", err)
	}
	if req.GetFields()["market"].GetStringValue() != "BTC/LTC" {
		t.Errorf("market = %v", req.GetFields()["market"])
	}
	if req.GetFields()["limit"].GetNumberValue() != 5 {
		t.Errorf("limit = %v", req.GetFields()["limit"])
	}

	empty, err := parseRequest("  ")
	if err != nil || len(empty.GetFields()) != 0 {
		t.Errorf("parseRequest(blank) = %v, %v", empty, err)
	}

	for _, bad := range []string{"[1,2]", "{", "nope"} {
		if _, err := parseRequest(bad); err == nil {
			t.Errorf("parseRequest(%q) expected error", bad)
		}
	}
}

func TestRenderStruct(t *testing.T) {
	s, _ := structpb.NewStruct(map[string]interface{}{
		"status":  "OK",
		"healthy": true,
		"count":   float64(3),
		"engines": map[string]interface{}{"BTC": "OK"},
		"missing": nil,
	})

	out := renderStruct(s)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("renderStruct() printed %d lines, want 5:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "count") || !strings.Contains(lines[0], "3") {
		t.Errorf("first line should be the sorted key count, got %q", lines[0])
	}
	for _, want := range []string{"status", "OK", "healthy", "true", `{"BTC":"OK"}`, "-"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderStruct() missing %q:\n%s", want, out)
		}
	}

	if empty := renderStruct(&structpb.Struct{}); !strings.Contains(empty, "(empty)") {
		t.Errorf("renderStruct(empty) = %q", empty)
	}
}

func TestPrintResponse_JSON(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	s, _ := structpb.NewStruct(map[string]interface{}{"blockOrderId": "abc"})
	var buf bytes.Buffer
	if err := printResponse(&buf, "ignored", s); err != nil {
		t.Fatalf("printResponse() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if decoded["blockOrderId"] != "abc" {
		t.Errorf("blockOrderId = %v, want abc", decoded["blockOrderId"])
	}
	if strings.Contains(buf.String(), "ignored") {
		t.Error("JSON output should not contain the title")
	}
}
