package enrich

import (
	"testing"

	"github.com/jmchantrein/anklume/types"
)

func policyDoc() *types.Document {
	doc := baseDoc()
	doc.Policies = []types.Policy{
		{From: "work", To: "admin", Ports: types.Ports{List: []int{22}}, Protocol: types.ProtoTCP},
		{From: "work-a", To: "admin-ctrl", Ports: types.Ports{All: true}, Protocol: types.ProtoAll},
		{From: types.HostSentinel, To: "work", Ports: types.Ports{List: []int{80, 443}}, Protocol: types.ProtoTCP, Bidirectional: true},
	}
	return doc
}

func TestExpandPolicies(t *testing.T) {
	enriched, err := Document(policyDoc())
	if err != nil {
		t.Fatalf("Document: %v", err)
	}

	rules, err := ExpandPolicies(enriched)
	if err != nil {
		t.Fatalf("ExpandPolicies: %v", err)
	}
	// Three policies, one bidirectional: four primitive rules.
	if len(rules) != 4 {
		t.Fatalf("expected 4 rules, got %d", len(rules))
	}

	if rules[0].Src != "10.42.1.0/24" || rules[0].Dst != "10.42.0.0/24" {
		t.Errorf("domain endpoints = %s -> %s, want subnets", rules[0].Src, rules[0].Dst)
	}

	if rules[1].Src != "10.42.1.1/32" {
		t.Errorf("machine endpoint = %s, want 10.42.1.1/32", rules[1].Src)
	}
	if !rules[1].Ports.All {
		t.Error("ports: all lost in expansion")
	}

	if rules[2].Src != HostCIDR {
		t.Errorf("host endpoint = %s, want %s", rules[2].Src, HostCIDR)
	}
	// The reverse rule follows its forward rule directly.
	if rules[3].Src != rules[2].Dst || rules[3].Dst != rules[2].Src {
		t.Errorf("bidirectional reverse rule mismatched: %+v vs %+v", rules[3], rules[2])
	}
}

func TestExpandPolicies_DeclarationOrder(t *testing.T) {
	enriched, err := Document(policyDoc())
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	rules, err := ExpandPolicies(enriched)
	if err != nil {
		t.Fatalf("ExpandPolicies: %v", err)
	}

	// Rule order must follow policy declaration order.
	if rules[0].Dst != "10.42.0.0/24" || rules[2].Src != HostCIDR {
		t.Errorf("rules out of declaration order: %+v", rules)
	}
}

func TestExpandPolicies_UnknownEndpoint(t *testing.T) {
	doc := baseDoc()
	doc.Policies = []types.Policy{{From: "ghost", To: "admin", Ports: types.Ports{All: true}, Protocol: types.ProtoTCP}}
	enriched, err := Document(doc)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if _, err := ExpandPolicies(enriched); err == nil {
		t.Fatal("expected error for unknown endpoint")
	}
}
