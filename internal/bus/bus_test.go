package bus

import "testing"

func TestExecuteRunsRegisteredCommand(t *testing.T) {
	t.Parallel()
	b := New()
	var got Params
	b.HandleCommand("cmd.test", func(p Params) { got = p })

	b.Execute("cmd.test", Params{"x": 1})
	if got["x"] != 1 {
		t.Errorf("got = %v, want x=1", got)
	}
}

func TestExecuteWithNoHandlerDoesNotPanic(t *testing.T) {
	t.Parallel()
	b := New()
	b.Execute("cmd.nothing", Params{})
}

func TestCallReturnsHandlerResult(t *testing.T) {
	t.Parallel()
	b := New()
	b.HandleCall("call.test", func(p Params) any { return p["n"].(int) * 2 })

	got := b.Call("call.test", Params{"n": 21})
	if got != 42 {
		t.Errorf("Call() = %v, want 42", got)
	}
}

func TestCallWithNoHandlerReturnsNil(t *testing.T) {
	t.Parallel()
	b := New()
	if got := b.Call("call.nothing", Params{}); got != nil {
		t.Errorf("Call() = %v, want nil", got)
	}
}

func TestEmitNotifiesAllSubscribers(t *testing.T) {
	t.Parallel()
	b := New()
	var calls []string
	b.On("event.test", func(p Params) { calls = append(calls, "a") })
	b.On("event.test", func(p Params) { calls = append(calls, "b") })

	b.Emit("event.test", Params{})
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Errorf("calls = %v, want [a b] in subscription order", calls)
	}
}

func TestGetSettingStringReturnsFallbackWithNoHandler(t *testing.T) {
	t.Parallel()
	b := New()
	got := b.GetSettingString("editor.font_family", "Courier New")
	if got != "Courier New" {
		t.Errorf("got = %q, want fallback", got)
	}
}

func TestGetSettingStringReadsThroughRegisteredCall(t *testing.T) {
	t.Parallel()
	b := New()
	store := map[string]string{"editor.font_family": "Consolas"}
	b.HandleCall(GetSetting, func(p Params) any {
		key := MustString(p, "key")
		if v, ok := store[key]; ok {
			return v
		}
		return p["default"]
	})

	got := b.GetSettingString("editor.font_family", "Courier New")
	if got != "Consolas" {
		t.Errorf("got = %q, want %q", got, "Consolas")
	}
}

func TestSetSettingExecutesCommandAndEmitsEvent(t *testing.T) {
	t.Parallel()
	b := New()
	var executed Params
	var emitted Params
	b.HandleCommand(SetSetting, func(p Params) { executed = p })
	b.On(EventSettingChanged, func(p Params) { emitted = p })

	b.SetSetting("editor.font_size", 14)

	if executed["key"] != "editor.font_size" || executed["value"] != 14 {
		t.Errorf("executed = %v", executed)
	}
	if emitted["key"] != "editor.font_size" || emitted["value"] != 14 {
		t.Errorf("emitted = %v", emitted)
	}
}

func TestMustStringPanicsOnMissingKey(t *testing.T) {
	t.Parallel()
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for missing required param")
		}
	}()
	MustString(Params{}, "key")
}

func TestMustStringPanicsOnWrongType(t *testing.T) {
	t.Parallel()
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for wrong-typed param")
		}
	}()
	MustString(Params{"key": 5}, "key")
}
