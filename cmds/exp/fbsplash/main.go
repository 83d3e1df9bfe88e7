// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// fbsplash draws a BMP boot splash centered on the Linux framebuffer.
//
// Synopsis:
//
//	fbsplash [-bg RRGGBB] [-klog] [-screenshot FILE] SPLASH.BMP
//
// The splash is decorative: every failure is logged and the command
// still exits 0 so the surrounding boot carries on.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"strings"

	"github.com/u-root/u-root/pkg/ulog"

	"github.com/dtwood/systemd/pkg/fb"
	"github.com/dtwood/systemd/pkg/splash"
)

// Flags
var (
	bgFlag     = flag.String("bg", "", "Background fill as RRGGBB hex, overriding vendor detection")
	klog       = flag.Bool("klog", false, "Print output to the kernel log")
	screenshot = flag.String("screenshot", "", "After rendering, save the whole screen to FILE as a 24-bit BMP")
)

const sysVendorFile = "/sys/class/dmi/id/sys_vendor"

func info(format string, v ...interface{}) {
	if *klog {
		ulog.KernelLog.Printf("fbsplash: "+format, v...)
	} else {
		log.Printf(format, v...)
	}
}

// defaultBackground picks the fill used when no -bg override is
// given. Apple firmware draws its boot picker on light gray, so a
// splash there looks best over the same; everywhere else black.
func defaultBackground() *splash.Pixel {
	vendor, err := os.ReadFile(sysVendorFile)
	if err != nil {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(string(vendor)), "Apple") {
		return &splash.Pixel{Red: 0xc0, Green: 0xc0, Blue: 0xc0}
	}
	return nil
}

func parseBackground(s string) (*splash.Pixel, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 3 {
		return nil, fmt.Errorf("background %q: want RRGGBB hex", s)
	}
	return &splash.Pixel{Red: b[0], Green: b[1], Blue: b[2]}, nil
}

func run(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	bg := defaultBackground()
	if *bgFlag != "" {
		if bg, err = parseBackground(*bgFlag); err != nil {
			return err
		}
	}

	dev, err := fb.Open()
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := splash.Render(content, bg, dev); err != nil {
		return err
	}

	if *screenshot != "" {
		w, h := dev.Resolution()
		buf, err := dev.ReadPixels(image.Rect(0, 0, w, h))
		if err != nil {
			return err
		}
		if err := os.WriteFile(*screenshot, splash.Encode(buf, w, h), 0644); err != nil {
			return err
		}
		info("screen saved to %s", *screenshot)
	}
	return nil
}

func main() {
	log.SetPrefix("fbsplash: ")
	flag.Parse()
	if *klog {
		ulog.KernelLog.SetLogLevel(ulog.KLogNotice)
		ulog.KernelLog.SetConsoleLogLevel(ulog.KLogInfo)
	}
	if flag.NArg() != 1 {
		log.Fatalf("usage: fbsplash [options] SPLASH.BMP")
	}

	// A missing or broken splash must never stop a boot.
	if err := run(flag.Arg(0)); err != nil {
		info("no splash: %v", err)
	}
}
