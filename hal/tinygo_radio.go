//go:build tinygo && nrf52833

package hal

import (
	"device/nrf"
	"unsafe"
)

func startHFCLK() {
	nrf.CLOCK.EVENTS_HFCLKSTARTED.Set(0)
	nrf.CLOCK.TASKS_HFCLKSTART.Set(1)
	for nrf.CLOCK.EVENTS_HFCLKSTARTED.Get() == 0 {
	}
}

type nrfRadio struct{}

func (nrfRadio) Configure(cfg RadioConfig) {
	nrf.RADIO.POWER.Set(1)
	nrf.RADIO.MODE.Set(nrf.RADIO_MODE_MODE_Nrf_1Mbit)
	nrf.RADIO.TXPOWER.Set(nrf.RADIO_TXPOWER_TXPOWER_0dBm)
	nrf.RADIO.FREQUENCY.Set(uint32(cfg.Frequency))

	nrf.RADIO.BASE0.Set(cfg.BaseAddress)
	nrf.RADIO.TXADDRESS.Set(0)
	nrf.RADIO.RXADDRESSES.Set(1)

	nrf.RADIO.PCNF0.Set(8 << nrf.RADIO_PCNF0_LFLEN_Pos)
	nrf.RADIO.PCNF1.Set(
		(uint32(cfg.MaxLength) << nrf.RADIO_PCNF1_MAXLEN_Pos) |
			(uint32(cfg.BaseLength) << nrf.RADIO_PCNF1_BALEN_Pos) |
			(nrf.RADIO_PCNF1_WHITEEN_Enabled << nrf.RADIO_PCNF1_WHITEEN_Pos))

	nrf.RADIO.CRCCNF.Set(2)
	nrf.RADIO.CRCINIT.Set(cfg.CRCInit)
	nrf.RADIO.CRCPOLY.Set(cfg.CRCPoly)
	nrf.RADIO.DATAWHITEIV.Set(uint32(cfg.WhiteningIV))

	nrf.RADIO.INTENSET.Set(nrf.RADIO_INTENSET_READY | nrf.RADIO_INTENSET_END | nrf.RADIO_INTENSET_DISABLED)
}

func (nrfRadio) SetPacketBuffer(buf []byte) {
	nrf.RADIO.PACKETPTR.Set(uint32(uintptr(unsafe.Pointer(&buf[0]))))
}

func (nrfRadio) SetPrefix(prefix byte) { nrf.RADIO.PREFIX0.Set(uint32(prefix)) }

func (nrfRadio) RXEnable() { nrf.RADIO.TASKS_RXEN.Set(1) }
func (nrfRadio) TXEnable() { nrf.RADIO.TASKS_TXEN.Set(1) }
func (nrfRadio) Start()    { nrf.RADIO.TASKS_START.Set(1) }
func (nrfRadio) Disable()  { nrf.RADIO.TASKS_DISABLE.Set(1) }

func (nrfRadio) Ready() Event    { return regEvent{&nrf.RADIO.EVENTS_READY} }
func (nrfRadio) End() Event      { return regEvent{&nrf.RADIO.EVENTS_END} }
func (nrfRadio) Disabled() Event { return regEvent{&nrf.RADIO.EVENTS_DISABLED} }

func (nrfRadio) CRCOK() bool { return nrf.RADIO.CRCSTATUS.Get() == 1 }
