package main

import "testing"

func TestLoadSignatureFromTestdata(t *testing.T) {
	cfg, err := loadSignature("testdata/decimator.yaml")
	if err != nil {
		t.Fatalf("loadSignature: %v", err)
	}
	if cfg.BlockName != "decimator" {
		t.Fatalf("BlockName = %q, want decimator", cfg.BlockName)
	}
	if !cfg.FixedRate || cfg.RelativeRate != 0.5 {
		t.Fatalf("FixedRate/RelativeRate = %v/%v, want true/0.5", cfg.FixedRate, cfg.RelativeRate)
	}
	if len(cfg.Inputs) != 1 || cfg.Inputs[0].History != 3 {
		t.Fatalf("Inputs = %+v, want one port with history=3", cfg.Inputs)
	}
}

func TestValidateSignatureRejectsMissingName(t *testing.T) {
	cfg := &SignatureConfig{Inputs: []PortConfig{{ItemSize: 4}}}
	if err := validateSignature(cfg); err == nil {
		t.Fatalf("expected error for missing block_name")
	}
}

func TestValidateSignatureRejectsBadTagPolicy(t *testing.T) {
	cfg := &SignatureConfig{BlockName: "x", TagPolicy: "sideways"}
	if err := validateSignature(cfg); err == nil {
		t.Fatalf("expected error for unknown tag_policy")
	}
}
