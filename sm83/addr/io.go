package addr

// Reset and program entry points.
const (
	// ResetVector is where execution starts when the boot ROM is present.
	ResetVector uint16 = 0x0000
	// EntryPoint is where cartridge code starts once the boot ROM has handed over.
	EntryPoint uint16 = 0x0100
	// InterruptVectorBase is the handler address of the highest priority interrupt.
	// Each following interrupt handler is 8 bytes further.
	InterruptVectorBase uint16 = 0x0040
)

// memory map regions, as used by callers. The core itself does not enforce them.
const (
	ROMStart    uint16 = 0x0000
	ROMEnd      uint16 = 0x7FFF
	VRAMStart   uint16 = 0x8000
	VRAMEnd     uint16 = 0x9FFF
	ExtRAMStart uint16 = 0xA000
	ExtRAMEnd   uint16 = 0xBFFF
	WRAMStart   uint16 = 0xC000
	WRAMEnd     uint16 = 0xDFFF
	OAMStart    uint16 = 0xFE00
	OAMEnd      uint16 = 0xFE9F
	IOStart     uint16 = 0xFF00
	IOEnd       uint16 = 0xFF7F
	HRAMStart   uint16 = 0xFF80
	HRAMEnd     uint16 = 0xFFFE
)

// gpu registers
const (
	// LCD Control register.
	LCDC uint16 = 0xFF40
	// LCDC Status register.
	STAT uint16 = 0xFF41
	// Scroll Y (SCY) register.
	SCY uint16 = 0xFF42
	// Scroll X (SCX) register.
	SCX uint16 = 0xFF43
	// LY Compare register.
	LYC uint16 = 0xFF45
	// BG Palette register.
	BGP uint16 = 0xFF47
	// Object Palette 0 register.
	OBP0 uint16 = 0xFF48
	// Object Palette 1 register.
	OBP1 uint16 = 0xFF49
	// Window Y Position register.
	WY uint16 = 0xFF4A
	// Window X Position register.
	WX uint16 = 0xFF4B
)

// audio registers touched by the post-boot state.
const (
	NR10 uint16 = 0xFF10
	NR11 uint16 = 0xFF11
	NR12 uint16 = 0xFF12
	NR14 uint16 = 0xFF14
	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR24 uint16 = 0xFF19
	NR30 uint16 = 0xFF1A
	NR31 uint16 = 0xFF1B
	NR32 uint16 = 0xFF1C
	NR33 uint16 = 0xFF1E
	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22
	NR44 uint16 = 0xFF23
	NR50 uint16 = 0xFF24
	NR51 uint16 = 0xFF25
	NR52 uint16 = 0xFF26
)

// interrupts
const (
	// IF is the address for the Interrupt Flags register.
	IF uint16 = 0xFF0F
	// IE is the address for the Interrupt Enable register.
	IE uint16 = 0xFFFF
)

// joypad
const (
	// P1 is used to read the Joypad state.
	P1 uint16 = 0xFF00
)

// serial I/O
const (
	// SB (Serial transfer data, 0xFF01)
	//
	// Holds the 8-bit data to be transmitted. After completion, SB contains the
	// received byte from the peer (0xFF when no peer is connected).
	SB uint16 = 0xFF01
	// SC (Serial transfer control, 0xFF02)
	//  - Bit 7 (Start): Writing 1 starts an 8-bit transfer; hardware clears to 0 when done.
	//  - Bit 0 (Clock): 1=internal clock, 0=external clock.
	SC uint16 = 0xFF02
)

// timer
const (
	// DIV is the upper byte of the 16 bit system counter.
	DIV uint16 = 0xFF04
	// TIMA is the timer counter, incremented at the rate selected by TAC.
	TIMA uint16 = 0xFF05
	// TMA is the value loaded into TIMA when it overflows.
	TMA uint16 = 0xFF06
	// TAC controls the timer: bit 2 enables it, bits 1-0 select the clock.
	TAC uint16 = 0xFF07
)

// Interrupt is the bit index of an interrupt source in IE and IF.
// Lower indexes have higher priority.
type Interrupt uint8

const (
	// VBlankInterrupt is fired when the GPU has completed a frame.
	VBlankInterrupt Interrupt = iota
	// LCDSTATInterrupt is fired based on one of the conditions in the LCDSTAT register.
	LCDSTATInterrupt
	// TimerInterrupt is fired when the timer register (TIMA) overflows.
	TimerInterrupt
	// SerialInterrupt is fired when a serial transfer has completed on the game link port.
	SerialInterrupt
	// JoypadInterrupt is fired when any of the keypad inputs goes from high to low.
	JoypadInterrupt
)

// Vector returns the handler address for the interrupt.
func (i Interrupt) Vector() uint16 {
	return InterruptVectorBase + uint16(i)*8
}

func (i Interrupt) String() string {
	switch i {
	case VBlankInterrupt:
		return "vblank"
	case LCDSTATInterrupt:
		return "lcdstat"
	case TimerInterrupt:
		return "timer"
	case SerialInterrupt:
		return "serial"
	case JoypadInterrupt:
		return "joypad"
	}
	return "unknown"
}
