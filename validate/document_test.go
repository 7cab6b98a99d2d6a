package validate

import (
	"strings"
	"testing"

	"github.com/jmchantrein/anklume/types"
)

func validDoc() *types.Document {
	ephemeralFalse := false
	doc := &types.Document{
		Domains: []types.Domain{
			{
				Name:      "admin",
				SubnetID:  0,
				Trust:     types.TrustTrusted,
				Ephemeral: &ephemeralFalse,
				Machines: []types.Machine{
					{Name: "admin-ctrl", Kind: types.KindContainer},
				},
			},
			{
				Name:     "work",
				SubnetID: 1,
				Profiles: []types.Profile{{Name: "gui"}},
				Machines: []types.Machine{
					{Name: "work-dev", Kind: types.KindVM, IP: "10.42.1.10", Profiles: []string{"gui"}},
				},
			},
		},
		Policies: []types.Policy{
			{From: "admin", To: "work", Ports: types.Ports{List: []int{22}}, Protocol: types.ProtoTCP},
		},
	}
	doc.ApplyDefaults()
	return doc
}

func hasViolation(r *Result, substr string) bool {
	for _, e := range r.Errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestDocument_Valid(t *testing.T) {
	r := Document(validDoc())
	if !r.IsValid() {
		t.Fatalf("expected valid, got errors: %v", r.Errors)
	}
	if len(r.Warnings) != 0 {
		t.Fatalf("expected no warnings, got: %v", r.Warnings)
	}
}

func TestDocument_DuplicateMachineNamesAcrossDomains(t *testing.T) {
	doc := validDoc()
	doc.Domains[1].Machines[0].Name = "admin-ctrl"
	doc.Domains[1].Machines[0].Profiles = nil

	r := Document(doc)
	if r.IsValid() {
		t.Fatal("expected invalid")
	}
	// The violation names both sides of the collision.
	if !hasViolation(r, `machine "admin-ctrl" in domain "work"`) || !hasViolation(r, `domain "admin"`) {
		t.Errorf("collision violation should name both entities: %v", r.Errors)
	}
}

func TestDocument_DuplicateDomainAndSubnet(t *testing.T) {
	doc := validDoc()
	doc.Domains[1].Name = "admin"
	doc.Domains[1].SubnetID = 0
	doc.Domains[1].Machines = nil

	r := Document(doc)
	if !hasViolation(r, "name already used") {
		t.Errorf("missing duplicate-name violation: %v", r.Errors)
	}
	if !hasViolation(r, "subnet_id 0 already used") {
		t.Errorf("missing duplicate-subnet violation: %v", r.Errors)
	}
}

func TestDocument_AddressOutsideSubnet(t *testing.T) {
	doc := validDoc()
	// Globally unique, but in admin's subnet rather than work's.
	doc.Domains[1].Machines[0].IP = "10.42.0.10"

	r := Document(doc)
	if !hasViolation(r, "outside domain subnet") {
		t.Errorf("missing subnet containment violation: %v", r.Errors)
	}
}

func TestDocument_GatewayAddressReserved(t *testing.T) {
	doc := validDoc()
	doc.Domains[1].Machines[0].IP = "10.42.1.254"

	r := Document(doc)
	if !hasViolation(r, "reserved gateway address") {
		t.Errorf("missing gateway violation: %v", r.Errors)
	}
}

func TestDocument_DuplicateAddress(t *testing.T) {
	doc := validDoc()
	doc.Domains[1].Machines = append(doc.Domains[1].Machines, types.Machine{
		Name: "work-two", Kind: types.KindContainer, IP: "10.42.1.10",
	})

	r := Document(doc)
	if !hasViolation(r, `already assigned to machine "work-dev"`) {
		t.Errorf("missing duplicate-address violation: %v", r.Errors)
	}
}

func TestDocument_UnresolvedProfile(t *testing.T) {
	doc := validDoc()
	doc.Domains[0].Machines[0].Profiles = []string{"gui"} // gui lives in work, not admin

	r := Document(doc)
	if !hasViolation(r, `profile "gui" not defined in this domain`) {
		t.Errorf("missing profile violation: %v", r.Errors)
	}
}

func TestDocument_UnresolvedPolicyEndpoint(t *testing.T) {
	doc := validDoc()
	doc.Policies = append(doc.Policies, types.Policy{
		From: "nowhere", To: "work", Ports: types.Ports{All: true}, Protocol: types.ProtoTCP,
	})

	r := Document(doc)
	if !hasViolation(r, `endpoint "nowhere"`) {
		t.Errorf("missing endpoint violation: %v", r.Errors)
	}
}

func TestDocument_HostSentinelResolves(t *testing.T) {
	doc := validDoc()
	doc.Policies = append(doc.Policies, types.Policy{
		From: "host", To: "work", Ports: types.Ports{All: true}, Protocol: types.ProtoTCP,
	})

	r := Document(doc)
	if !r.IsValid() {
		t.Errorf("host sentinel should resolve: %v", r.Errors)
	}
}

func TestDocument_GPUPolicy(t *testing.T) {
	doc := validDoc()
	doc.Domains[0].Machines[0].GPU = true
	doc.Domains[1].Machines[0].GPU = true

	r := Document(doc)
	if !hasViolation(r, "gpu_policy is exclusive") {
		t.Errorf("missing gpu violation: %v", r.Errors)
	}

	doc.Global.GPUPolicy = types.GPUShared
	r = Document(doc)
	if !r.IsValid() {
		t.Errorf("shared gpu should be valid: %v", r.Errors)
	}
	if len(r.Warnings) == 0 {
		t.Error("shared gpu with two claimants should warn")
	}
}

func TestDocument_AIExclusive(t *testing.T) {
	doc := validDoc()
	doc.Global.AIPolicy = types.AIPolicy{Mode: types.AIExclusive, Domain: "ollama"}

	r := Document(doc)
	if !hasViolation(r, "default_domain is required") {
		t.Errorf("missing default_domain violation: %v", r.Errors)
	}

	doc.Global.AIPolicy.DefaultDomain = "ollama"
	r = Document(doc)
	if !hasViolation(r, "must not be the AI-services domain") {
		t.Errorf("missing self-reference violation: %v", r.Errors)
	}

	doc.Global.AIPolicy.DefaultDomain = "work"
	doc.Domains = append(doc.Domains, types.Domain{Name: "ollama", SubnetID: 5})
	doc.Policies = append(doc.Policies,
		types.Policy{From: "work", To: "ollama", Ports: types.Ports{List: []int{11434}}, Protocol: types.ProtoTCP},
		types.Policy{From: "admin", To: "ollama", Ports: types.Ports{List: []int{11434}}, Protocol: types.ProtoTCP},
	)
	r = Document(doc)
	if !hasViolation(r, "at most one policy may target") {
		t.Errorf("missing ai destination violation: %v", r.Errors)
	}
}

func TestDocument_CollectsAllViolations(t *testing.T) {
	doc := validDoc()
	doc.Domains[0].SubnetID = 999                         // range
	doc.Domains[1].Machines[0].IP = "not-an-ip"           // address
	doc.Domains[1].Machines[0].Profiles = []string{"nah"} // profile ref
	doc.Policies[0].Ports = types.Ports{}                 // missing ports
	doc.Policies[0].To = "gone"                           // endpoint

	r := Document(doc)
	if len(r.Errors) < 5 {
		t.Fatalf("expected at least 5 independent violations, got %d: %v", len(r.Errors), r.Errors)
	}
}
