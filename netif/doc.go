// Package netif presents a link driver as a network interface.
//
// An [Interface] validates raw captures, classifies them by destination
// address and hands them to an upstream stack. In the other direction it
// frames outbound packets and queues them on the driver. Counters follow the
// MIB-II interface group so a stack can export them directly.
//
//	ifc := netif.New(drv, stack.Input)
//	ifc.SetTap(pcapFile) // optional, Wireshark readable
//
//	for {
//	    ifc.Poll()
//	}
//
// Frame headers are parsed with gopacket; the optional tap writes a
// little-endian pcap stream through gopacket/pcapgo.
package netif
