package isa

import (
	"errors"
	"fmt"
)

func validateModifier(m *Modifier) error {
	if m.Name == "" {
		return errors.New("modifier has no name")
	}
	if len(m.Cases) == 0 {
		return fmt.Errorf("modifier %s has no cases", m.Name)
	}
	mask := m.Cases[0].Mask
	if mask == 0 {
		return fmt.Errorf("modifier %s claims no bits", m.Name)
	}
	for i, c := range m.Cases {
		if c.Mask != mask {
			return fmt.Errorf("modifier %s case %d claims %s, but case 0 claims %s", m.Name, i, c.Mask, mask)
		}
		if c.Pattern&^c.Mask != 0 {
			return fmt.Errorf("modifier %s case %d: pattern bits %s outside its mask", m.Name, i, c.Pattern&^c.Mask)
		}
		for j, o := range m.Cases[:i] {
			if o.Pattern == c.Pattern {
				return fmt.Errorf("modifier %s cases %d and %d have the same pattern", m.Name, j, i)
			}
		}
	}
	return nil
}

func (t *Table) checkOpcode(op *Opcode, seenTypes map[*DataType]bool) error {
	if op.Name == "" {
		return errors.New("opcode has no name")
	}
	if len(op.Encodings) == 0 {
		return errors.New("opcode has no encodings")
	}
	if len(op.Params) > MaxParams {
		return fmt.Errorf("%d parameters exceed the limit of %d", len(op.Params), MaxParams)
	}

	width := op.Encodings[0].Width
	args := 0
	for i, p := range op.Params {
		if p.Name == "" || p.Type == nil {
			return fmt.Errorf("parameter %d needs a name and a type", i)
		}
		if op.ParamIndex(p.Name) != i {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		if err := p.Type.validate(width, seenTypes); err != nil {
			return fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		args += p.Type.MaxArgs()
	}
	if args > MaxArgs {
		return fmt.Errorf("up to %d arguments exceed the limit of %d", args, MaxArgs)
	}

	var err error
	if op.template, err = t.compileTemplate(op.Mnemonic); err != nil {
		return fmt.Errorf("mnemonic: %w", err)
	}
	if op.AltMnemonic != "" {
		if op.altTemplate, err = t.compileTemplate(op.AltMnemonic); err != nil {
			return fmt.Errorf("alternate mnemonic: %w", err)
		}
	}
	if op.Operands == nil {
		op.Operands = make([]Operand, len(op.Params))
		for i, p := range op.Params {
			op.Operands[i] = Operand{Param: p.Name}
		}
	}
	if err := resolveOperands(op, op.Operands); err != nil {
		return err
	}
	if err := resolveOperands(op, op.AltOperands); err != nil {
		return fmt.Errorf("alternate operands: %w", err)
	}
	return nil
}

func (t *Table) compileTemplate(tmpl string) ([]Token, error) {
	toks, err := parseTemplate(tmpl)
	if err != nil {
		return nil, err
	}
	for _, tok := range toks {
		if tok.Modifier == "" {
			continue
		}
		if _, ok := t.modifiers[tok.Modifier]; !ok {
			return nil, fmt.Errorf("unknown modifier %q", tok.Modifier)
		}
	}
	return toks, nil
}

func resolveOperands(op *Opcode, operands []Operand) error {
	for i := range operands {
		idx := op.ParamIndex(operands[i].Param)
		if idx < 0 {
			return fmt.Errorf("operand %d names unknown parameter %q", i, operands[i].Param)
		}
		operands[i].index = idx
	}
	return nil
}

func (t *Table) checkEncoding(op *Opcode, enc *Encoding) error {
	switch {
	case t.halfwords && enc.Width == Word32:
		return errors.New("32-bit encoding in a half-word table")
	case !t.halfwords && enc.Width != Word32:
		return fmt.Errorf("%s encoding in a word table", enc.Width)
	}
	full := enc.Width.Mask()
	if enc.Mask&^full != 0 {
		return fmt.Errorf("mask %s exceeds the encoding width", enc.Mask)
	}
	if enc.Pattern&^enc.Mask != 0 {
		return fmt.Errorf("pattern bits %s are outside the mask", enc.Pattern&^enc.Mask)
	}
	if enc.Reserved.SBO&enc.Reserved.SBZ != 0 {
		return fmt.Errorf("bits %s are both should-be-one and should-be-zero", enc.Reserved.SBO&enc.Reserved.SBZ)
	}
	if len(enc.Modifiers) > MaxModifiers {
		return fmt.Errorf("%d modifiers exceed the limit of %d", len(enc.Modifiers), MaxModifiers)
	}

	var cov coverage
	cov.add("mask", enc.Mask)
	cov.add("reserved bits", enc.Reserved.Mask())

	enc.mods = make([]*Modifier, len(enc.Modifiers))
	for i, name := range enc.Modifiers {
		m, ok := t.modifiers[name]
		if !ok {
			return fmt.Errorf("unknown modifier %q", name)
		}
		enc.mods[i] = m
		cov.add("modifier "+name, m.Mask())
	}

	for name := range enc.Bind {
		if op.ParamIndex(name) < 0 {
			return fmt.Errorf("binding for unknown parameter %q", name)
		}
	}
	enc.binds = make([]Binding, len(op.Params))
	for i, p := range op.Params {
		b, err := enc.Bind[p.Name].resolve(p.Type, enc.Width)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		claim, err := b.claim(p.Type)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		enc.binds[i] = b
		cov.add("parameter "+p.Name, claim)
	}

	return cov.check(full)
}

// coverage accumulates the bits claimed by the parts of an encoding so
// that gaps and double claims can be reported.
type coverage struct {
	claimed Bits
	err     error
}

func (c *coverage) add(what string, bits Bits) {
	if c.err != nil {
		return
	}
	if dup := c.claimed & bits; dup != 0 {
		c.err = fmt.Errorf("%s claims bits %s already covered", what, dup)
		return
	}
	c.claimed |= bits
}

func (c *coverage) check(full Bits) error {
	if c.err != nil {
		return c.err
	}
	if extra := c.claimed &^ full; extra != 0 {
		return fmt.Errorf("bits %s lie outside the encoding width", extra)
	}
	if gap := full &^ c.claimed; gap != 0 {
		return fmt.Errorf("bits %s are not covered", gap)
	}
	return nil
}
