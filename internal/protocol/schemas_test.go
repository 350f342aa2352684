package protocol_test

import (
	"testing"

	"polycube.ai/internal/protocol"
	"polycube.ai/internal/sim/game"
	"polycube.ai/internal/sim/geom"
	"polycube.ai/internal/sim/maps"
	"polycube.ai/internal/sim/piece"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	valid := []struct {
		schema string
		doc    string
	}{
		{protocol.SchemaHello, `{"type":"HELLO","protocol_version":"1.0","client_name":"bot1"}`},
		{protocol.SchemaNewGame, `{"type":"NEW_GAME","protocol_version":"1.0"}`},
		{protocol.SchemaNewGame, `{"type":"NEW_GAME","protocol_version":"1.0","game_mode":{"type":"VSGreedyAI","data":"Wall"}}`},
		{protocol.SchemaAct, `{"type":"ACT","protocol_version":"1.0","action":{"type":"PreviewPiece","data":[0,0.5,1]}}`},
		{protocol.SchemaAct, `{"type":"ACT","protocol_version":"1.0","action":{"type":"SelectPiece","data":"right_screw"}}`},
		{protocol.SchemaAct, `{"type":"ACT","protocol_version":"1.0","action":{"type":"RotateSelectedPiece","data":"Y"}}`},
		{protocol.SchemaAct, `{"type":"ACT","protocol_version":"1.0","action":{"type":"MakeGreedyAIMove"}}`},
		{protocol.SchemaError, `{"type":"ERROR","protocol_version":"1.0","code":"E_NO_GAME","message":"send NEW_GAME first"}`},
	}
	for _, tc := range valid {
		if err := v.Validate(tc.schema, []byte(tc.doc)); err != nil {
			t.Fatalf("%s: %s: %v", tc.schema, tc.doc, err)
		}
	}

	invalid := []struct {
		schema string
		doc    string
	}{
		{protocol.SchemaHello, `{"type":"HELLO"}`},
		{protocol.SchemaNewGame, `{"type":"NEW_GAME","protocol_version":"1.0","game_mode":{"type":"Solitaire","data":"Tower"}}`},
		{protocol.SchemaAct, `{"type":"ACT","protocol_version":"1.0","action":{"type":"RotateSelectedPiece","data":"Z"}}`},
		{protocol.SchemaAct, `{"type":"ACT","protocol_version":"1.0","action":{"type":"PreviewPiece","data":[0,0]}}`},
		{protocol.SchemaAct, `{"type":"ACT","protocol_version":"1.0","action":{"type":"SelectPiece"}}`},
		{protocol.SchemaAct, `{"type":"ACT","protocol_version":"1.0","action":{"type":"Undo"}}`},
		{protocol.SchemaError, `{"type":"ERROR","protocol_version":"1.0","code":"oops","message":""}`},
	}
	for _, tc := range invalid {
		if err := v.Validate(tc.schema, []byte(tc.doc)); err == nil {
			t.Fatalf("%s: expected %s to be rejected", tc.schema, tc.doc)
		}
	}
}

func TestSchemas_StateMatchesEngineOutput(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	g, err := game.New(maps.VSGreedyAI(maps.Stairs))
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	g.ApplyAction(game.MakeGreedyAIMove())
	raw, err := protocol.Marshal(&g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	msg, err := protocol.Marshal(protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		SessionID:       "s1",
		Seq:             1,
		State:           raw,
	})
	if err != nil {
		t.Fatalf("marshal msg: %v", err)
	}
	if err := v.Validate(protocol.SchemaState, msg); err != nil {
		t.Fatalf("state: %v", err)
	}

	mode, _ := protocol.Marshal(g.GameMode)
	if err := v.Validate(protocol.SchemaGameMode, mode); err != nil {
		t.Fatalf("game mode: %v", err)
	}
}

func TestSchemas_ActionMatchesEngineEncoding(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	for _, a := range []game.Action{
		game.SelectPiece(piece.LeftScrew),
		game.ClearSelectedPiece(),
		game.SetSelectedPieceOrigin(geom.V(0, 1, 0)),
		game.RotateSelectedPiece(geom.AxisX),
		game.PreviewPiece(geom.V(2, 0, 3)),
		game.PlayPreviewedPiece(),
		game.PassTurn(),
		game.Reset(),
		game.MakeGreedyAIMove(),
	} {
		raw, err := protocol.Marshal(a)
		if err != nil {
			t.Fatalf("%s: %v", a, err)
		}
		if err := v.Validate(protocol.SchemaAction, raw); err != nil {
			t.Fatalf("%s: %s: %v", a, raw, err)
		}
	}
}

func TestDecodeBase(t *testing.T) {
	b, err := protocol.DecodeBase([]byte(`{"type":"ACT","protocol_version":"1.0","action":{}}`))
	if err != nil || b.Type != protocol.TypeAct || b.ProtocolVersion != protocol.Version {
		t.Fatalf("got %+v %v", b, err)
	}
	if _, err := protocol.DecodeBase([]byte(`not json`)); err == nil {
		t.Fatalf("expected error")
	}
}
