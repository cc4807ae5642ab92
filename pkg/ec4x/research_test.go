package ec4x

import "testing"

func TestResearchAllocationClamped(t *testing.T) {
	gs, _ := testState()
	h1, _ := twoHouses(gs)
	h := gs.Houses[h1]
	h.Treasury = 100
	applyResearchAllocation(gs, h, ResearchAllocation{ERP: 80, SRP: 50, TRP: 30}, &EventLog{})
	if h.Treasury != 0 {
		t.Fatalf("treasury: got %d, want 0", h.Treasury)
	}
	if h.Tech.AvailableERP != 80 || h.Tech.AvailableSRP != 20 || h.Tech.AvailableTRP != 0 {
		t.Fatalf("pools clamped wrong: ERP=%d SRP=%d TRP=%d",
			h.Tech.AvailableERP, h.Tech.AvailableSRP, h.Tech.AvailableTRP)
	}
	if h.Tech.LifetimeERP != 80 || h.Tech.LifetimeSRP != 20 {
		t.Fatal("lifetime totals should match what was actually spent")
	}
}

func TestAdvanceSL(t *testing.T) {
	gs, rules := testState()
	h1, _ := twoHouses(gs)
	h := gs.Houses[h1]

	h.Tech.LifetimeERP = 250
	h.Tech.LifetimeSRP = 59 // short of the first SRP threshold
	advanceSL(gs, rules, h, &EventLog{})
	if h.Tech.SL != 0 {
		t.Fatalf("SL advanced with SRP short: got %d", h.Tech.SL)
	}

	h.Tech.LifetimeSRP = 150
	log := &EventLog{}
	advanceSL(gs, rules, h, log)
	if h.Tech.SL != 2 {
		t.Fatalf("SL: got %d, want 2", h.Tech.SL)
	}
	if len(log.Events) != 1 || log.Events[0].Kind != EventSLAdvanced {
		t.Fatal("SL advance should log one event")
	}

	// SL never regresses
	h.Tech.LifetimeERP = 0
	advanceSL(gs, rules, h, &EventLog{})
	if h.Tech.SL != 2 {
		t.Fatal("SL must never regress")
	}
}

func TestBuyTech(t *testing.T) {
	gs, rules := testState()
	h1, _ := twoHouses(gs)
	h := gs.Houses[h1]

	// pool empty
	err := buyTech(gs, rules, h, TechEL, &EventLog{})
	if ve, ok := err.(*ValidationError); !ok || ve.Code != ErrInsufficientPool {
		t.Fatalf("empty pool: got %v, want insufficient pool", err)
	}

	h.Tech.AvailableERP = 1000
	if err := buyTech(gs, rules, h, TechEL, &EventLog{}); err != nil {
		t.Fatalf("tier 1 purchase failed: %v", err)
	}
	if h.Tech.Tier(TechEL) != 1 {
		t.Fatalf("EL tier: got %d, want 1", h.Tech.Tier(TechEL))
	}
	if h.Tech.AvailableERP >= 1000 {
		t.Fatal("pool not debited")
	}

	// tier 2 needs SL 1
	err = buyTech(gs, rules, h, TechEL, &EventLog{})
	if ve, ok := err.(*ValidationError); !ok || ve.Code != ErrSLGated {
		t.Fatalf("gated tier: got %v, want SL gate error", err)
	}
	h.Tech.SL = 1
	if err := buyTech(gs, rules, h, TechEL, &EventLog{}); err != nil {
		t.Fatalf("tier 2 after SL gate: %v", err)
	}
}

func TestBuyTechMaxTier(t *testing.T) {
	gs, rules := testState()
	h1, _ := twoHouses(gs)
	h := gs.Houses[h1]
	h.Tech.SL = 10
	h.Tech.AvailableTRP = 1 << 20
	h.Tech.Tiers[TechFD] = rules.Techs[TechFD].MaxTier
	err := buyTech(gs, rules, h, TechFD, &EventLog{})
	if ve, ok := err.(*ValidationError); !ok || ve.Code != ErrBadCommand {
		t.Fatalf("max tier: got %v, want rejection", err)
	}
}

func TestGrantTechTier(t *testing.T) {
	gs, rules := testState()
	h1, _ := twoHouses(gs)
	h := gs.Houses[h1]
	if !grantTechTier(rules, h, TechWEP) {
		t.Fatal("free grant should succeed from tier 0")
	}
	if h.Tech.Tier(TechWEP) != 1 {
		t.Fatalf("WEP tier: got %d, want 1", h.Tech.Tier(TechWEP))
	}
	h.Tech.Tiers[TechWEP] = rules.Techs[TechWEP].MaxTier
	if grantTechTier(rules, h, TechWEP) {
		t.Fatal("grant past max tier should fail")
	}
}
